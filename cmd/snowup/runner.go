package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/loykin/snowup"
	"github.com/loykin/snowup/internal/common"
	"github.com/loykin/snowup/internal/store"
	"github.com/loykin/snowup/pkg/status"
	"github.com/spf13/viper"
)

// loadConfigDoc reads the config file named by viper and applies flag and
// environment overrides. A missing default config file is not an error.
func loadConfigDoc(v *viper.Viper) (*ConfigDoc, error) {
	doc := &ConfigDoc{}
	if path := v.GetString("config"); path != "" {
		if err := doc.Load(path); err != nil {
			if !os.IsNotExist(err) || path != defaultConfigPath {
				return nil, err
			}
			common.LogWarn("config file not found, using defaults", "path", path)
		}
	}
	if dir := v.GetString("scripts_dir"); dir != "" {
		doc.Scripts.Dir = dir
	}
	if drv := v.GetString("driver"); drv != "" {
		doc.Database.Driver = drv
	}
	if dsn := v.GetString("dsn"); dsn != "" {
		doc.Database.DSN = dsn
	}
	if err := doc.SetupLogging(); err != nil {
		return nil, err
	}
	return doc, nil
}

// session bundles what a command needs to talk to the target database.
type session struct {
	dialect store.Dialect
	dsn     string
	doc     *ConfigDoc
}

func newSession(ctx context.Context, doc *ConfigDoc) (*session, error) {
	d, dsn, err := NewDialectFactory().Create(ctx, doc.Database)
	if err != nil {
		return nil, err
	}
	return &session{dialect: d, dsn: dsn, doc: doc}, nil
}

func (s *session) upgrader() (*snowup.Upgrader, error) {
	cfg, err := s.doc.UpgradeConfig()
	if err != nil {
		return nil, err
	}
	policy, err := s.doc.RetryPolicy()
	if err != nil {
		return nil, err
	}
	source := snowup.ScriptsFromDir(s.doc.ScriptsDir(), s.doc.Scripts.Pattern)
	return snowup.NewWithRetry(s.dialect, s.dsn, policy, source, cfg), nil
}

func runUp(ctx context.Context, doc *ConfigDoc, out io.Writer) error {
	s, err := newSession(ctx, doc)
	if err != nil {
		return err
	}
	u, err := s.upgrader()
	if err != nil {
		return err
	}
	defer func() { _ = u.Close() }()

	res, err := u.PerformUpgrade(ctx)
	for _, name := range res.Applied {
		_, _ = fmt.Fprintf(out, "applied %s\n", name)
	}
	if err != nil {
		return fmt.Errorf("upgrade halted at %s: %w", res.Failed, err)
	}
	if len(res.Applied) == 0 {
		_, _ = fmt.Fprintln(out, "database is up to date")
	}
	return nil
}

func runStatus(ctx context.Context, doc *ConfigDoc, out io.Writer, history bool, limit int) error {
	s, err := newSession(ctx, doc)
	if err != nil {
		return err
	}
	u, err := s.upgrader()
	if err != nil {
		return err
	}
	defer func() { _ = u.Close() }()

	info, err := status.FromSource(ctx, u)
	if err != nil {
		return err
	}
	if doc.Logging.Color != nil && *doc.Logging.Color && !history {
		_, _ = fmt.Fprint(out, info.FormatColorized(true))
		return nil
	}
	_, _ = fmt.Fprint(out, info.FormatHuman(history, limit))
	return nil
}

func runMark(ctx context.Context, doc *ConfigDoc, out io.Writer) error {
	s, err := newSession(ctx, doc)
	if err != nil {
		return err
	}
	u, err := s.upgrader()
	if err != nil {
		return err
	}
	defer func() { _ = u.Close() }()

	marked, err := u.MarkAsExecuted(ctx)
	for _, name := range marked {
		_, _ = fmt.Fprintf(out, "marked %s\n", name)
	}
	if err != nil {
		return err
	}
	if len(marked) == 0 {
		_, _ = fmt.Fprintln(out, "database is up to date")
	}
	return nil
}

func runEnsureDatabase(ctx context.Context, doc *ConfigDoc, out io.Writer, timeout string) error {
	d, err := parseDuration("timeout", timeout)
	if err != nil {
		return err
	}
	if timeout == "" {
		d = -1
	}
	s, err := newSession(ctx, doc)
	if err != nil {
		return err
	}
	if err := snowup.EnsureDatabase(ctx, s.dialect, s.dsn, d); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "database ensured")
	return nil
}

func runDropDatabase(ctx context.Context, doc *ConfigDoc) error {
	s, err := newSession(ctx, doc)
	if err != nil {
		return err
	}
	return snowup.DropDatabase(ctx, s.dialect, s.dsn)
}

// defaultConfigPath is used when neither --config nor SNOWUP_CONFIG is set.
const defaultConfigPath = "./snowup.yaml"
