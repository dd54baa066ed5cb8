// Package flags binds the flags shared by workspace commands.
package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// RootFlagName selects the workspace root directory.
	RootFlagName = "root"
	// RootFlagUsage describes the root flag.
	RootFlagUsage = "Workspace root directory (defaults to the nearest ancestor holding workspace state)"
	// ConfigFlagName selects an explicit configuration file.
	ConfigFlagName = "config"
	// ConfigFlagUsage describes the config flag.
	ConfigFlagUsage = "Optional path to a configuration file (YAML or JSON)."
	// LogLevelFlagName overrides the configured log level.
	LogLevelFlagName = "log-level"
	// LogLevelFlagUsage describes the log level flag.
	LogLevelFlagUsage = "Override the configured log level."
	// LogFormatFlagName overrides the configured log format.
	LogFormatFlagName = "log-format"
	// LogFormatFlagUsage describes the log format flag.
	LogFormatFlagUsage = "Override the configured log format."
	// AssumeYesFlagName skips confirmation prompts.
	AssumeYesFlagName = "yes"
	// AssumeYesFlagShorthand is the shorthand of the assume-yes flag.
	AssumeYesFlagShorthand = "y"
	// AssumeYesFlagUsage describes the assume-yes flag.
	AssumeYesFlagUsage = "Skip the confirmation prompt"
	// QuietFlagName suppresses per-repository headers.
	QuietFlagName = "quiet"
	// QuietFlagShorthand is the shorthand of the quiet flag.
	QuietFlagShorthand = "q"
	// QuietFlagUsage describes the quiet flag.
	QuietFlagUsage = "Do not print a header before each repository"

	choicePlaceholderTemplate = "<%s>"
	choiceSeparatorLiteral    = "|"
	choiceUsageEmptyTemplate  = "`%s`"
	choiceUsageFullTemplate   = "`%s` %s"
)

// GlobalFlagDefaults supplies the values advertised in global flag usage.
type GlobalFlagDefaults struct {
	LogLevel   string
	LogLevels  []string
	LogFormat  string
	LogFormats []string
}

// GlobalFlagValues receives the parsed global flags.
type GlobalFlagValues struct {
	Root       string
	ConfigFile string
	LogLevel   string
	LogFormat  string
}

// BindGlobalFlags registers the persistent flags every command inherits.
func BindGlobalFlags(command *cobra.Command, defaults GlobalFlagDefaults) *GlobalFlagValues {
	values := &GlobalFlagValues{}
	if command == nil {
		return values
	}

	persistentFlagSet := command.PersistentFlags()
	persistentFlagSet.StringVar(&values.Root, RootFlagName, "", RootFlagUsage)
	persistentFlagSet.StringVar(&values.ConfigFile, ConfigFlagName, "", ConfigFlagUsage)
	persistentFlagSet.StringVar(&values.LogLevel, LogLevelFlagName, "", FormatChoiceUsage(defaults.LogLevel, defaults.LogLevels, LogLevelFlagUsage))
	persistentFlagSet.StringVar(&values.LogFormat, LogFormatFlagName, "", FormatChoiceUsage(defaults.LogFormat, defaults.LogFormats, LogFormatFlagUsage))
	return values
}

// BindAssumeYesFlag registers --yes/-y on command.
func BindAssumeYesFlag(command *cobra.Command) *bool {
	assumeYes := false
	if command != nil {
		command.Flags().BoolVarP(&assumeYes, AssumeYesFlagName, AssumeYesFlagShorthand, false, AssumeYesFlagUsage)
	}
	return &assumeYes
}

// BindQuietFlag registers --quiet/-q on command.
func BindQuietFlag(command *cobra.Command) *bool {
	quiet := false
	if command != nil {
		command.Flags().BoolVarP(&quiet, QuietFlagName, QuietFlagShorthand, false, QuietFlagUsage)
	}
	return &quiet
}

// Changed reports whether flagName was set on command, on one of its parents' persistent flags or on the root.
func Changed(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.Flags(),
		command.PersistentFlags(),
		command.InheritedFlags(),
	}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}

// FormatChoiceUsage builds a usage string listing choices inside a placeholder, the default one capitalized.
// Blank and repeated choices are dropped.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	displayedChoices := make([]string, 0, len(choices))
	seenChoices := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if len(normalizedChoice) == 0 {
			continue
		}
		if _, seen := seenChoices[normalizedChoice]; seen {
			continue
		}
		seenChoices[normalizedChoice] = struct{}{}
		if normalizedChoice == normalizedDefault {
			trimmedChoice = strings.ToUpper(trimmedChoice)
		}
		displayedChoices = append(displayedChoices, trimmedChoice)
	}

	placeholder := fmt.Sprintf(choicePlaceholderTemplate, strings.Join(displayedChoices, choiceSeparatorLiteral))
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, trimmedDescription)
}
