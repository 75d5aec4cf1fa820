package fakeyou

import (
	"context"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
)

// Voice is a single synthesis model.
type Voice struct {
	Title          string   `json:"title"`
	ModelToken     string   `json:"model_token"`
	CategoryTokens []string `json:"category_tokens"`
}

// Category groups voices.
type Category struct {
	Title         string `json:"title"`
	CategoryToken string `json:"category_token"`
	ModelType     string `json:"model_type"`
}

// Voices returns a copy of all cached voices.
func (c *Client) Voices() []Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneVoices(c.catalog.voices)
}

// Categories returns a copy of all cached categories.
func (c *Client) Categories() []Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.catalog.categories)
}

// VoicesByCategory returns the cached voices tagged with the category.
func (c *Client) VoicesByCategory(category Category) []Voice {
	return c.VoicesByCategoryToken(category.CategoryToken)
}

// VoicesByCategoryToken returns the cached voices tagged with the token.
func (c *Client) VoicesByCategoryToken(token string) []Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()

	voices := make([]Voice, 0)
	for _, v := range c.catalog.voices {
		if slices.Contains(v.CategoryTokens, token) {
			voices = append(voices, cloneVoice(v))
		}
	}
	return voices
}

// VoiceByToken looks up a cached voice by its model token.
func (c *Client) VoiceByToken(modelToken string) (Voice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, v := range c.catalog.voices {
		if v.ModelToken == modelToken {
			return cloneVoice(v), true
		}
	}
	return Voice{}, false
}

// Refresh reloads categories and voices and replaces the cache in one step.
// On any error the previous cache is kept.
func (c *Client) Refresh(ctx context.Context) error {
	categories, err := c.fetchCategories(ctx)
	if err != nil {
		return err
	}
	voices, err := c.fetchVoices(ctx)
	if err != nil {
		return err
	}

	next := catalog{
		categories: categories,
		voices:     voices,
		generated:  time.Now().UTC(),
	}

	c.mu.Lock()
	c.catalog = next
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"categories": len(categories),
		"voices":     len(voices),
	}).Info("refreshed voice catalog")
	return nil
}

func (c *Client) fetchCategories(ctx context.Context) ([]Category, error) {
	body, err := c.getJSON(ctx, c.opts.BaseURL+"/category/list/tts")
	if err != nil {
		return nil, err
	}
	return decodeCategories(body)
}

func (c *Client) fetchVoices(ctx context.Context) ([]Voice, error) {
	body, err := c.getJSON(ctx, c.opts.BaseURL+"/tts/list")
	if err != nil {
		return nil, err
	}
	return decodeVoices(body)
}

func decodeCategories(body map[string]any) ([]Category, error) {
	entries, err := arrayField(body, "categories")
	if err != nil {
		return nil, err
	}

	categories := make([]Category, 0, len(entries))
	for i, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, improper("category %d is not an object", i)
		}

		var cat Category
		if cat.Title, err = stringField(obj, "name"); err != nil {
			return nil, err
		}
		if cat.CategoryToken, err = stringField(obj, "category_token"); err != nil {
			return nil, err
		}
		if cat.ModelType, err = stringField(obj, "model_type"); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, nil
}

func decodeVoices(body map[string]any) ([]Voice, error) {
	entries, err := arrayField(body, "models")
	if err != nil {
		return nil, err
	}

	voices := make([]Voice, 0, len(entries))
	for i, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, improper("model %d is not an object", i)
		}

		rawTokens, err := arrayField(obj, "category_tokens")
		if err != nil {
			return nil, err
		}
		tokens := make([]string, 0, len(rawTokens))
		for _, raw := range rawTokens {
			token, ok := raw.(string)
			if !ok {
				return nil, improper("model %d has a non-string category token", i)
			}
			tokens = append(tokens, token)
		}

		v := Voice{CategoryTokens: tokens}
		if v.Title, err = stringField(obj, "title"); err != nil {
			return nil, err
		}
		if v.ModelToken, err = stringField(obj, "model_token"); err != nil {
			return nil, err
		}
		voices = append(voices, v)
	}
	return voices, nil
}

func cloneVoice(v Voice) Voice {
	v.CategoryTokens = slices.Clone(v.CategoryTokens)
	return v
}

func cloneVoices(in []Voice) []Voice {
	out := make([]Voice, len(in))
	for i, v := range in {
		out[i] = cloneVoice(v)
	}
	return out
}
