package lang

import (
	"os"

	"github.com/ardnew/mung"
)

// pathPrefixFilter prepends directories to a PATH-like list.
//
//	env.PATH | pathprefix:'/opt/bin'
//	env.PATH | pathprefix:['/opt/bin', '/usr/local/go/bin']:true
//
// The first argument is a directory or an array of directories. When the
// optional second argument is truthy, only prefixes that name existing
// directories are kept.
func pathPrefixFilter(input any, args ...any) (any, error) {
	subject := ""
	if !isNullish(input) {
		subject = ToString(input)
	}

	if len(args) == 0 {
		return subject, nil
	}

	prefix := pathItems(args[0])

	delim := string(os.PathListSeparator)

	if len(args) > 1 && Truthy(args[1]) {
		return mung.Make(
			mung.WithSubjectItems(subject),
			mung.WithDelim(delim),
			mung.WithPrefixItems(prefix...),
			mung.WithFilter(fileIsDir),
		).String(), nil
	}

	return mung.Make(
		mung.WithSubjectItems(subject),
		mung.WithDelim(delim),
		mung.WithPrefixItems(prefix...),
	).String(), nil
}

func pathItems(v any) []string {
	switch t := v.(type) {
	case []any:
		items := make([]string, 0, len(t))
		for _, e := range t {
			if !isNullish(e) {
				items = append(items, ToString(e))
			}
		}

		return items
	case []string:
		return t
	}

	if isNullish(v) {
		return nil
	}

	return []string{ToString(v)}
}
