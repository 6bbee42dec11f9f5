package actions

import (
	"smartpick.dev/smartpick/internal/config"
	"smartpick.dev/smartpick/internal/runtime"
)

// ConfigShowAction prints every config key, or only the given one
func ConfigShowAction(ctx *runtime.Context, key string) error {
	keys := config.Keys()
	if key != "" {
		keys = []string{key}
	}
	for _, k := range keys {
		value, err := ctx.Config.Get(k)
		if err != nil {
			return err
		}
		if key != "" {
			ctx.Splog.Info("%s", value)
			continue
		}
		ctx.Splog.Info("%s = %s", k, value)
	}
	return nil
}

// ConfigSetAction stores a value in the repository config file. Overrides
// given on the command line are not persisted.
func ConfigSetAction(ctx *runtime.Context, key, value string) error {
	cfg, err := config.Load(ctx.GitDir())
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Save(ctx.GitDir()); err != nil {
		return err
	}
	stored, _ := cfg.Get(key)
	ctx.Splog.Info("Set %s to %s", key, stored)
	return nil
}
