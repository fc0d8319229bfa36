package util

import (
	"flag"
	"strings"

	"github.com/sirupsen/logrus"
)

func Flag[T flag.Value](name string, value T, usage string) T {
	flag.Var(value, name, usage)
	return value
}

type stringsFlag []string

func (s stringsFlag) String() string {
	return strings.Join(s, ",")
}

func (s *stringsFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// StringsFlag defines a flag that can be given more than once. Each
// occurrence appends to the list.
func StringsFlag(name string, value []string, usage string) *[]string {
	return (*[]string)(Flag(name, (*stringsFlag)(&value), usage))
}

// LevelFlag is a log level flag that remembers whether it was set so
// that it can override a level from elsewhere.
type LevelFlag struct {
	Level logrus.Level
	IsSet bool
}

func (f *LevelFlag) String() string {
	if f == nil {
		return ""
	}
	return f.Level.String()
}

func (f *LevelFlag) Set(v string) error {
	lvl, err := logrus.ParseLevel(v)
	if err != nil {
		return err
	}
	f.Level = lvl
	f.IsSet = true
	return nil
}
