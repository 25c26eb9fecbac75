package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// OutputFlags holds the output format flag shared by commands that print
// structured data.
type OutputFlags struct {
	Format string
}

// AddOutputFlags adds --format/-f to a command with the allowed formats.
func AddOutputFlags(flags *pflag.FlagSet, formats ...string) *OutputFlags {
	out := &OutputFlags{}
	flags.StringVarP(&out.Format, "format", "f", formats[0],
		fmt.Sprintf("output format (%s)", strings.Join(formats, "|")))
	AddFlagValidation(flags, "format", func(format string) error {
		return ValidateFormat(format, formats)
	})
	return out
}

// BindFlags binds flags to viper configuration keys. Flags missing from the
// set are skipped.
func BindFlags(flags *pflag.FlagSet, bindings map[string]string) {
	for flagName, configKey := range bindings {
		if flag := flags.Lookup(flagName); flag != nil {
			_ = viper.BindPFlag(configKey, flag)
		}
	}
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(flags *pflag.FlagSet, flagName string, validator func(string) error) {
	flag := flags.Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidatePort checks that portStr is a port number.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}

	return nil
}

// ValidateFormat checks format against the allowed values, case-insensitively.
func ValidateFormat(format string, allowed []string) error {
	for _, a := range allowed {
		if strings.EqualFold(format, a) {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q, must be one of: %s", format, strings.Join(allowed, ", "))
}
