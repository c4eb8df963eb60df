package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/skilltrail/internal/llm"
	"github.com/abhisek/skilltrail/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the AI provider settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective provider, models and masked API keys",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		v, err := a.settings.View(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Provider: %s\n\n", v.LLMProvider)
		fmt.Printf("  %-11s  %-28s  %s\n", "Kind", "Model", "API key")
		fmt.Println("  " + strings.Repeat("─", 60))
		for _, kind := range llm.Providers {
			p := v.Providers[kind]
			key := p.APIKeyMasked
			if !p.Configured {
				key = "(not set)"
			}
			marker := " "
			if kind == v.LLMProvider {
				marker = "*"
			}
			fmt.Printf("%s %-11s  %-28s  %s\n", marker, kind, truncate(p.Model, 28), key)
		}
		return nil
	}),
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key>=<value>...",
	Short: "Set llm_provider, <provider>_api_key or <provider>_model",
	Example: "  skilltrail settings set llm_provider=anthropic anthropic_api_key=sk-ant-...\n" +
		"  skilltrail settings set openai_model=gpt-4o",
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		values := make(map[string]string, len(args))
		for _, arg := range args {
			k, v, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("expected key=value, got %q", arg)
			}
			values[strings.TrimSpace(k)] = v
		}
		if err := a.settings.Update(cmd.Context(), values); err != nil {
			return err
		}

		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			v := values[k]
			if strings.HasSuffix(k, "_api_key") {
				v = settings.Mask(strings.TrimSpace(v))
			}
			fmt.Printf("%s = %s\n", k, v)
		}
		return nil
	}),
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}
