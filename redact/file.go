package redact

import (
	"context"
	"os"

	"github.com/hashicorp/hcredact/util"
)

// RedactFile redacts input into output and stores the mapping at mappingPath, which defaults to output + ".dict".
// Nothing is written under either final name unless the whole operation succeeds. Filesystem errors are returned as
// they are.
func RedactFile(ctx context.Context, patterns *PatternSet, opts Options, input, output, mappingPath string) (Mapping, error) {
	opts = opts.withDefaults()
	if mappingPath == "" {
		mappingPath = util.MappingName(output)
	}

	content, perm, err := readInput(input)
	if err != nil {
		return nil, err
	}

	out, err := util.CreateAtomic(output, perm)
	if err != nil {
		return nil, err
	}
	defer out.Abort()

	m, err := NewRedactor(patterns, opts).Redact(ctx, content, out)
	if err != nil {
		return nil, err
	}

	dict, err := util.CreateAtomic(mappingPath, 0600)
	if err != nil {
		return nil, err
	}
	defer dict.Abort()

	if err := m.Encode(dict); err != nil {
		return nil, err
	}
	// A mapping already at mappingPath is kept aside until the output is in place too.
	backup, err := util.BackupFile(mappingPath)
	if err != nil {
		return nil, err
	}
	if err := dict.Commit(); err != nil {
		_ = backup.Restore()
		return nil, err
	}
	if err := out.Commit(); err != nil {
		_ = backup.Restore()
		return nil, err
	}
	if err := backup.Discard(); err != nil {
		opts.Logger.Warn("failed to remove previous mapping", "path", mappingPath, "error", err)
	}

	opts.Logger.Info("redacted file", "input", input, "output", output, "mapping", mappingPath, "entries", len(m))
	return m, nil
}

// UnredactFile restores input into output using the mapping stored at mappingPath. An empty mapping is rejected before
// any file is created, and output is only created once every chunk has been restored.
func UnredactFile(ctx context.Context, opts Options, input, output, mappingPath string) error {
	opts = opts.withDefaults()

	m, err := Load(mappingPath)
	if err != nil {
		return err
	}
	u, err := NewUnredactor(m, opts)
	if err != nil {
		return err
	}

	content, perm, err := readInput(input)
	if err != nil {
		return err
	}

	out, err := util.CreateAtomic(output, perm)
	if err != nil {
		return err
	}
	defer out.Abort()

	if err := u.Unredact(ctx, content, out); err != nil {
		return err
	}
	if err := out.Commit(); err != nil {
		return err
	}

	opts.Logger.Info("unredacted file", "input", input, "output", output, "mapping", mappingPath, "entries", len(m))
	return nil
}

func readInput(path string) ([]byte, os.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	return content, info.Mode().Perm(), nil
}
