package config

import (
	"os"
	"regexp"

	"github.com/sirupsen/logrus"
)

// Environ looks up a variable of the invoking environment.
type Environ func(name string) (string, bool)

// OSEnviron reads the process environment.
var OSEnviron Environ = os.LookupEnv

var substitution = regexp.MustCompile(`\$\(([a-z_]+)\)`)

// Evaluate applies statements to the store strictly in order, so every
// statement observes the effects of the ones before it.
func Evaluate(s *Store, file string, statements []Statement, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}

	for _, st := range statements {
		if _, ok := primitives[st.Name]; !ok {
			return &StatementError{File: file, Line: st.Line, Err: &ValidationError{Primitive: st.Name, Err: ErrUnknownPrimitive}}
		}

		args := make([]string, 0, len(st.Args))
		for _, arg := range st.Args {
			expanded, err := substitute(s, arg)
			if err != nil {
				return &StatementError{File: file, Line: st.Line, Err: err}
			}
			args = append(args, expanded)
		}

		if len(args) == 0 {
			value, _ := s.Query(st.Name)
			log.WithFields(logrus.Fields{"primitive": st.Name, "value": value}).Debug("config query")
			continue
		}

		if err := s.Apply(st.Name, args...); err != nil {
			return &StatementError{File: file, Line: st.Line, Err: err}
		}
	}

	return nil
}

// substitute replaces $(primitive) with the primitive's current value.
func substitute(s *Store, arg string) (string, error) {
	var queryErr error
	arg = substitution.ReplaceAllStringFunc(arg, func(match string) string {
		name := substitution.FindStringSubmatch(match)[1]
		value, err := s.Query(name)
		if err != nil && queryErr == nil {
			queryErr = err
		}
		return value
	})
	if queryErr != nil {
		return "", queryErr
	}
	return arg, nil
}
