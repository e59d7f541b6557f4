package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	toggleAnnotationKeyConstant       = "portalaudit_toggle"
	toggleTypeNameConstant            = "toggle"
	toggleImplicitValueConstant       = "yes"
	toggleEnabledPlaceholderConstant  = "<YES|no>"
	toggleDisabledPlaceholderConstant = "<yes|NO>"
	toggleParseErrorTemplateConstant  = "invalid toggle value %q: expected yes or no"
	longFlagPrefixConstant            = "--"
	flagValueSeparatorConstant        = "="
)

var toggleLiterals = map[string]bool{
	"yes":   true,
	"y":     true,
	"true":  true,
	"on":    true,
	"1":     true,
	"no":    false,
	"n":     false,
	"false": false,
	"off":   false,
	"0":     false,
}

// toggleValue is a pflag.Value accepting yes/no style literals.
type toggleValue struct {
	target *bool
}

func (value toggleValue) Set(rawValue string) error {
	parsed, known := toggleLiterals[strings.ToLower(strings.TrimSpace(rawValue))]
	if !known {
		return fmt.Errorf(toggleParseErrorTemplateConstant, rawValue)
	}
	*value.target = parsed
	return nil
}

func (value toggleValue) String() string {
	if value.target == nil || !*value.target {
		return "no"
	}
	return "yes"
}

func (value toggleValue) Type() string {
	return toggleTypeNameConstant
}

// AddToggleFlag registers a boolean flag that accepts yes/no values. A bare flag enables it.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || target == nil || len(name) == 0 {
		return
	}
	*target = defaultValue
	flagSet.Var(toggleValue{target: target}, name, toggleUsage(defaultValue, usage))
	flag := flagSet.Lookup(name)
	flag.NoOptDefVal = toggleImplicitValueConstant
	_ = flagSet.SetAnnotation(name, toggleAnnotationKeyConstant, []string{name})
}

func toggleUsage(defaultValue bool, usage string) string {
	placeholder := toggleDisabledPlaceholderConstant
	if defaultValue {
		placeholder = toggleEnabledPlaceholderConstant
	}
	return fmt.Sprintf(choiceUsageFullTemplateConstant, placeholder, strings.TrimSpace(usage))
}

// ToggleNames collects the toggle flags registered anywhere under root.
func ToggleNames(root *cobra.Command) map[string]struct{} {
	names := map[string]struct{}{}
	if root == nil {
		return names
	}
	collect := func(flag *pflag.Flag) {
		if _, isToggle := flag.Annotations[toggleAnnotationKeyConstant]; isToggle {
			names[flag.Name] = struct{}{}
		}
	}
	root.PersistentFlags().VisitAll(collect)
	root.Flags().VisitAll(collect)
	for _, child := range root.Commands() {
		for name := range ToggleNames(child) {
			names[name] = struct{}{}
		}
	}
	return names
}

// NormalizeToggleArguments joins "--toggle value" pairs into "--toggle=value" so pflag reads the value
// instead of treating it as a positional argument.
func NormalizeToggleArguments(arguments []string, toggleNames map[string]struct{}) []string {
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == longFlagPrefixConstant {
			return append(normalized, arguments[index:]...)
		}
		name := strings.TrimPrefix(current, longFlagPrefixConstant)
		_, isToggle := toggleNames[name]
		if !strings.HasPrefix(current, longFlagPrefixConstant) || !isToggle || index+1 >= len(arguments) {
			normalized = append(normalized, current)
			continue
		}
		next := arguments[index+1]
		if _, isLiteral := toggleLiterals[strings.ToLower(strings.TrimSpace(next))]; !isLiteral {
			normalized = append(normalized, current)
			continue
		}
		normalized = append(normalized, current+flagValueSeparatorConstant+next)
		index++
	}
	return normalized
}
