package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fakeyou/internal/cli/scheme/colours"
	"fakeyou/internal/config"
	"fakeyou/internal/fakeyou"
	"fakeyou/internal/history"
	"fakeyou/internal/playback"
	"fakeyou/internal/snapshot"
)

// App holds the state shared by the cobra commands.
type App struct {
	settings  *config.Settings
	snapshots *snapshot.Store

	ctx    context.Context
	Cancel context.CancelFunc

	// Swappable in tests.
	authenticate func(ctx context.Context, user, pass string, opts ...fakeyou.Option) (*fakeyou.Client, error)
	play         func(ctx context.Context, data []byte) error
	openHistory  func(path string) (*history.Store, error)
}

func New(settings *config.Settings) *App {
	if lvl, err := logrus.ParseLevel(settings.Log.Level); err == nil {
		logrus.SetLevel(lvl)
	} else {
		logrus.WithError(err).Warn("unknown log level, keeping default")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		settings:     settings,
		snapshots:    snapshot.New(settings.Cache.Dir, settings.Cache.MaxAge),
		ctx:          ctx,
		Cancel:       cancel,
		authenticate: fakeyou.Authenticate,
		play:         playback.Play,
		openHistory:  history.Open,
	}
}

func (a *App) login() (*fakeyou.Client, error) {
	user, pass := a.settings.Auth.Username, a.settings.Auth.Password
	if user == "" || pass == "" {
		return nil, fmt.Errorf("missing credentials: set FAKEYOU_USERNAME and FAKEYOU_PASSWORD or auth.* in fakeyou.yaml")
	}

	client, err := a.authenticate(a.ctx, user, pass, a.settings.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	if err := a.snapshots.Save(snapshot.FromClient(client)); err != nil {
		logrus.WithError(err).Warn("failed to save catalog snapshot")
	}
	return client, nil
}

// catalog returns the catalog either from the disk snapshot (offline) or a
// fresh login.
func (a *App) catalog(offline bool) (*snapshot.Snapshot, error) {
	if offline {
		if !a.snapshots.IsFresh() {
			return nil, fmt.Errorf("no fresh catalog snapshot; run without --offline first")
		}
		return a.snapshots.Load()
	}

	client, err := a.login()
	if err != nil {
		return nil, err
	}
	snap := snapshot.FromClient(client)
	return &snap, nil
}

func (a *App) ListCategories(cmd *cobra.Command, args []string) error {
	offline, _ := cmd.Flags().GetBool("offline")
	snap, err := a.catalog(offline)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	colours.Title.Fprintln(out, "Categories")
	fmt.Fprintln(out)
	for _, c := range snap.Categories {
		colours.Category.Fprintf(out, "  %s", c.Title)
		fmt.Fprintf(out, " [%s] ", c.ModelType)
		colours.Token.Fprintln(out, c.CategoryToken)
	}
	fmt.Fprintln(out)
	colours.Success.Fprintf(out, "%d categories (catalog from %s)\n", len(snap.Categories), snap.Generated.Local().Format(time.DateTime))
	return nil
}

func (a *App) ListVoices(cmd *cobra.Command, args []string) error {
	offline, _ := cmd.Flags().GetBool("offline")
	category, _ := cmd.Flags().GetString("category")
	search, _ := cmd.Flags().GetString("search")

	snap, err := a.catalog(offline)
	if err != nil {
		return err
	}

	voices := snap.Voices
	if category != "" {
		voices = snap.VoicesByCategoryToken(category)
	}

	out := cmd.OutOrStdout()
	count := 0
	for _, v := range voices {
		if search != "" && !strings.Contains(strings.ToLower(v.Title), strings.ToLower(search)) {
			continue
		}
		count++
		colours.Voice.Fprintf(out, "  %s ", v.Title)
		colours.Token.Fprintln(out, v.ModelToken)
	}

	if count == 0 {
		colours.Warning.Fprintln(out, "No voices matched.")
		return nil
	}
	colours.Success.Fprintf(out, "%d voices\n", count)
	return nil
}

func (a *App) Say(cmd *cobra.Command, args []string) error {
	token, _ := cmd.Flags().GetString("voice")
	outPath, _ := cmd.Flags().GetString("out")
	play, _ := cmd.Flags().GetBool("play")

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return fmt.Errorf("nothing to say")
	}
	if token == "" {
		return fmt.Errorf("--voice is required (see `fakeyou voices`)")
	}

	client, err := a.login()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	voice, ok := client.VoiceByToken(token)
	if !ok {
		logrus.WithField("model", token).Warn("voice not in catalog, submitting anyway")
		voice = fakeyou.Voice{Title: token, ModelToken: token}
	}

	colours.Info.Fprintf(out, "Generating with %s, this can take a while...\n", voice.Title)
	gen, err := client.Generate(a.ctx, text, voice.ModelToken)
	if err != nil {
		return fmt.Errorf("failed to generate audio: %w", err)
	}

	if outPath == "" {
		outPath = filepath.Join(a.settings.Output.Dir, fileNameFor(gen.JobToken))
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := fakeyou.WriteAudio(outPath, gen.Audio); err != nil {
		return err
	}

	a.record(history.Entry{
		JobToken:   gen.JobToken,
		ModelToken: gen.ModelToken,
		VoiceTitle: voice.Title,
		Text:       text,
		AudioURL:   gen.AudioURL,
		OutputFile: outPath,
		Bytes:      len(gen.Audio),
	})

	colours.Success.Fprintf(out, "Saved %s", outPath)
	if d, err := playback.Duration(gen.Audio); err == nil {
		fmt.Fprintf(out, " (%s)", d.Round(100*time.Millisecond))
	}
	fmt.Fprintln(out)

	if play {
		if err := a.play(a.ctx, gen.Audio); err != nil {
			return fmt.Errorf("failed to play audio: %w", err)
		}
	}
	return nil
}

func (a *App) record(e history.Entry) {
	store, err := a.openHistory(a.settings.History.Path)
	if err != nil {
		logrus.WithError(err).Warn("history unavailable")
		return
	}
	defer store.Close()

	if err := store.Record(a.ctx, &e); err != nil {
		logrus.WithError(err).Warn("failed to record generation")
	}
}

func (a *App) History(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := a.openHistory(a.settings.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(a.ctx, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		colours.Warning.Fprintln(out, "No generations yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  ", e.CreatedAt.Local().Format(time.DateTime))
		colours.Voice.Fprintf(out, "%s  ", e.VoiceTitle)
		fmt.Fprintf(out, "%q -> %s\n", truncate(e.Text, 40), e.OutputFile)
	}
	return nil
}

func (a *App) CacheStatus(cmd *cobra.Command, args []string) error {
	info, err := a.snapshots.Info()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	colours.Title.Fprintln(out, "Catalog cache")
	if !info.Exists {
		colours.Warning.Fprintln(out, "Cache does not exist")
		colours.Info.Fprintln(out, "Run 'fakeyou voices' to create it")
		return nil
	}

	colours.Info.Fprintf(out, "Location: %s\n", info.Path)
	colours.Info.Fprintf(out, "Size: %d bytes\n", info.Size)
	colours.Info.Fprintf(out, "Last modified: %s\n", info.LastModified.Format(time.DateTime))
	if info.Fresh {
		colours.Success.Fprintln(out, "Cache is fresh")
	} else {
		colours.Warning.Fprintln(out, "Cache is stale")
	}
	colours.Info.Fprintf(out, "Max age: %s\n", info.MaxAge)
	return nil
}

func (a *App) CacheClear(cmd *cobra.Command, args []string) error {
	if err := a.snapshots.Clear(); err != nil {
		return err
	}
	colours.Success.Fprintln(cmd.OutOrStdout(), "Catalog cache cleared")
	return nil
}

// Commands builds the subcommand tree.
func (a *App) Commands() []*cobra.Command {
	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "List voice categories",
		Args:  cobra.NoArgs,
		RunE:  a.ListCategories,
	}
	categoriesCmd.Flags().Bool("offline", false, "List from the cached catalog without logging in")

	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "List voices",
		Args:  cobra.NoArgs,
		RunE:  a.ListVoices,
	}
	voicesCmd.Flags().StringP("category", "c", "", "Only voices in this category token")
	voicesCmd.Flags().StringP("search", "s", "", "Filter by title")
	voicesCmd.Flags().Bool("offline", false, "List from the cached catalog without logging in")

	sayCmd := &cobra.Command{
		Use:   "say [text]",
		Short: "Synthesize text to a wav file",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.Say,
	}
	sayCmd.Flags().StringP("voice", "v", "", "Model token of the voice to use")
	sayCmd.Flags().StringP("out", "o", "", "Output file (default: <output.dir>/<job>.wav)")
	sayCmd.Flags().BoolP("play", "p", false, "Play the result once downloaded")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent generations",
		Args:  cobra.NoArgs,
		RunE:  a.History,
	}
	historyCmd.Flags().IntP("limit", "n", 20, "Number of entries")

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local catalog cache",
	}
	cacheCmd.AddCommand(
		&cobra.Command{Use: "status", Short: "Show cache status", Args: cobra.NoArgs, RunE: a.CacheStatus},
		&cobra.Command{Use: "clear", Short: "Remove the cached catalog", Args: cobra.NoArgs, RunE: a.CacheClear},
	)

	return []*cobra.Command{categoriesCmd, voicesCmd, sayCmd, historyCmd, cacheCmd}
}

func fileNameFor(jobToken string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, jobToken)
	if name == "" {
		name = "output"
	}
	return name + ".wav"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
