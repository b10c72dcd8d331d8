package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/objecttext/lang"
	"github.com/ardnew/objecttext/log"
)

// resolve returns a [kong.ConfigurationLoader] for configuration files
// written in ObjectText. Flags are read from the top-level block called
// name:
//
//	config {
//	  log_level = debug
//	  log {
//	    format = json
//	    pretty = false
//	  }
//	  include = ["/usr/share/rules", "./rules"]
//	}
//
// Keys may use '_' in place of '-', and nested blocks join their keys with
// '-', so both forms above set --log-level and --log-format. A file with
// syntax errors is ignored with a warning; command-line flags always
// override the file.
func resolve(ctx context.Context, name string) func(r io.Reader) (kong.Resolver, error) {
	return func(r io.Reader) (kong.Resolver, error) {
		doc, err := lang.ParseReader(ctx, r, lang.WithFilename(name))
		if err != nil {
			return nil, err
		}

		if err := doc.Err(); err != nil {
			log.WarnContext(ctx, "ignoring configuration file", slog.Any("error", err))

			return config{}, nil
		}

		stmt, err := doc.Lookup(name)
		if err != nil {
			return config{}, nil
		}

		block, ok := stmt.(*lang.Block)
		if !ok {
			return config{}, nil
		}

		cfg := config{}
		cfg.flatten("", block)

		return cfg, nil
	}
}

// config implements [kong.Resolver] over flattened flag names.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	return nil, nil //nolint:nilnil
}

func (r config) flatten(prefix string, b *lang.Block) {
	for _, m := range b.Members {
		key := m.StatementKey()
		if key == nil {
			continue
		}

		name := prefix + strings.ReplaceAll(key.Name, "_", "-")

		switch m := m.(type) {
		case *lang.Block:
			r.flatten(name+"-", m)

		case *lang.List:
			r[name] = listValue(m)

		case *lang.Assignment:
			if v, ok := scalarValue(m.Value); ok {
				r[name] = v
			}
		}
	}
}

// scalarValue converts v to the form kong decodes flag values from.
// Numbers are rendered as strings since kong parses them itself.
func scalarValue(v lang.Node) (any, bool) {
	switch v := v.(type) {
	case *lang.Bool:
		return v.Value, true

	case *lang.Number:
		return strconv.FormatFloat(v.Value, 'f', -1, 64), true

	case *lang.String:
		return v.Text, true

	case *lang.Verbatim:
		return v.Text, true

	case *lang.Identifier:
		return v.Name, true

	case *lang.BareString:
		return v.Text, true

	case *lang.List:
		return listValue(v), true
	}

	return nil, false
}

// listValue joins the scalar elements of l with kong's default separator.
func listValue(l *lang.List) string {
	items := make([]string, 0, len(l.Elements))

	for _, e := range l.Elements {
		if v, ok := scalarValue(e); ok {
			if s, ok := v.(string); ok {
				items = append(items, s)
			} else {
				items = append(items, strconv.FormatBool(v.(bool)))
			}
		}
	}

	return strings.Join(items, ",")
}
