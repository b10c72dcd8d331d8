package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ardnew/objecttext/lang"
)

const defaultConfigIndent = 2

// skipFlags are never written to a configuration file.
var skipFlags = map[string]bool{"help": true, "version": true}

// Init writes a configuration file holding the current value of every
// global flag.
type Init struct {
	Force bool   `help:"Overwrite an existing configuration file." short:"f"`
	Path  string `default:"${config}" help:"Configuration file to write." type:"path"`
}

// Run executes the command.
func (i *Init) Run(ctx context.Context) error {
	env := envFrom(ctx)

	if i.Path == "" {
		return ErrNoConfigPath
	}

	if _, err := os.Stat(i.Path); err == nil && !i.Force {
		return ErrWriteConfig.Wrap(ErrFileExists).With(slog.String("file", i.Path))
	}

	block := configBlock(kongContextFrom(ctx))

	f, err := os.Create(i.Path)
	if err != nil {
		return ErrWriteConfig.Wrap(err).With(slog.String("file", i.Path))
	}
	defer f.Close()

	if err := lang.FormatNode(f, block, defaultConfigIndent); err != nil {
		return ErrWriteConfig.Wrap(err).With(slog.String("file", i.Path))
	}

	if _, err := fmt.Fprintln(f); err != nil {
		return ErrWriteConfig.Wrap(err).With(slog.String("file", i.Path))
	}

	env.Logger.InfoContext(ctx, "wrote configuration file",
		slog.String("path", i.Path),
		slog.Int("settings", len(block.Members)),
	)

	return nil
}

// configBlock builds the configuration block from the application flags
// of ktx. Flags in a group are nested in a block named after the group.
func configBlock(ktx *kong.Context) *lang.Block {
	root := &lang.Block{Key: &lang.Identifier{Name: ConfigIdentifier}}

	if ktx == nil {
		return root
	}

	groups := map[string]*lang.Block{}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || skipFlags[flag.Name] {
			continue
		}

		value := configValue(ktx.FlagValue(flag))
		if value == nil {
			continue
		}

		parent, name := root, flag.Name

		if flag.Group != nil {
			if member, ok := strings.CutPrefix(name, flag.Group.Key+"-"); ok {
				g, ok := groups[flag.Group.Key]
				if !ok {
					g = &lang.Block{Key: &lang.Identifier{Name: flag.Group.Key}}
					groups[flag.Group.Key] = g
					root.Members = append(root.Members, g)
				}

				parent, name = g, member
			}
		}

		parent.Members = append(parent.Members, &lang.Assignment{
			Key:   &lang.Identifier{Name: strings.ReplaceAll(name, "-", "_")},
			Value: value,
		})
	}

	return root
}

// configValue converts a decoded flag value to a syntax tree value, or nil
// for empty values.
func configValue(v any) lang.Value {
	switch v := v.(type) {
	case nil:
		return nil

	case bool:
		return &lang.Bool{Value: v}

	case string:
		if v == "" {
			return nil
		}

		return &lang.String{Text: v}

	case time.Duration:
		return &lang.String{Text: v.String()}

	case int:
		return &lang.Number{Text: strconv.Itoa(v), Value: float64(v)}

	case int64:
		return &lang.Number{Text: strconv.FormatInt(v, 10), Value: float64(v)}

	case float64:
		return &lang.Number{Text: strconv.FormatFloat(v, 'g', -1, 64), Value: v}

	case []string:
		if len(v) == 0 {
			return nil
		}

		list := &lang.List{Elements: make([]lang.Node, len(v))}
		for i, s := range v {
			list.Elements[i] = &lang.String{Text: s}
		}

		return list

	case fmt.Stringer:
		return configValue(v.String())

	default:
		return configValue(fmt.Sprint(v))
	}
}
