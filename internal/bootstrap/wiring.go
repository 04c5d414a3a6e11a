package bootstrap

import (
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"speech-illustrator/internal/audio"
	"speech-illustrator/internal/config"
	"speech-illustrator/internal/logging"
)

// NewFromEnv builds the logger, the native microphone and the App from operator options.
// The returned cleanup releases PortAudio and flushes the logger.
func NewFromEnv(env config.Env, assets fs.FS) (*App, *zap.Logger, func(), error) {
	logger, err := logging.NewLogger(env.LogLevel, env.LogFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create logger: %w", err)
	}

	opts := Options{
		Env:    env,
		Logger: logger,
		Assets: assets,
	}

	device, err := audio.NewDevice()
	if err != nil {
		logger.Warn("native audio capture unavailable, browser uploads only", zap.Error(err))
	} else {
		opts.Device = device
		opts.InputName = device.DefaultInputName
	}

	cleanup := func() {
		if device != nil {
			if err := device.Close(); err != nil {
				logger.Warn("terminate portaudio", zap.Error(err))
			}
		}
		_ = logger.Sync()
	}

	app, err := New(opts)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	logger.Info("application ready",
		zap.String("settings", env.SettingsPath),
		zap.String("provider", string(app.Settings.Provider)),
		zap.Bool("native_capture", device != nil),
	)
	return app, logger, cleanup, nil
}
