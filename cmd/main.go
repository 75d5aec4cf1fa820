package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fakeyou/internal/cli/app"
	"fakeyou/internal/cli/scheme/colours"
	"fakeyou/internal/config"
)

func main() {
	if err := config.Init(); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}

	settings, err := config.Load()
	if err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}

	fy := app.New(settings)

	// Setup signal handling so a running poll loop stops cleanly
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fy.Cancel()
		fmt.Println("\n" + colours.Warning.Sprint("👋 Cancelled"))
	}()

	rootCmd := &cobra.Command{
		Use:   "fakeyou",
		Short: "🎙️ Text to speech with FakeYou voices",
		Long: `
fakeyou logs in to FakeYou, lists the voice catalog and turns text into
wav files. Credentials come from FAKEYOU_USERNAME / FAKEYOU_PASSWORD, a
.env file or ~/.fakeyou/fakeyou.yaml.
		`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(fy.Commands()...)

	if err := rootCmd.Execute(); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
}
