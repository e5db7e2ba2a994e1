package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/scythe504/guessword-backend/internal"
	"github.com/scythe504/guessword-backend/internal/game"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	port           int
	turnTimeout    time.Duration
	maxQuestions   int
	guessAttempts  int
	maxTimeouts    int
	thinkerExit    string
	lateJoin       string
	sessionTimeout time.Duration
	wordList       string
	databaseURL    string
	logLevel       string
	pretty         bool
	version        bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.turnTimeout <= 0 {
		return errors.New("--turn-timeout must be positive")
	}
	if c.maxQuestions < 1 {
		return fmt.Errorf("invalid --max-questions: %d", c.maxQuestions)
	}
	if c.guessAttempts < 1 {
		return fmt.Errorf("invalid --guess-attempts: %d", c.guessAttempts)
	}
	if c.maxTimeouts < 1 {
		return fmt.Errorf("invalid --max-timeouts: %d", c.maxTimeouts)
	}
	if c.sessionTimeout < 0 {
		return errors.New("--session-timeout must not be negative")
	}
	switch game.ThinkerExitPolicy(c.thinkerExit) {
	case game.ThinkerExitTeardown, game.ThinkerExitRotate:
	default:
		return fmt.Errorf("invalid --thinker-exit %q (want teardown or rotate)", c.thinkerExit)
	}
	switch game.LateJoinPolicy(c.lateJoin) {
	case game.LateJoinAppend, game.LateJoinNextRound:
	default:
		return fmt.Errorf("invalid --late-join %q (want append or next-round)", c.lateJoin)
	}
	return nil
}

// options translates the flags into game settings. Words are filled in by the
// caller.
func (c *Config) options() game.Options {
	return game.Options{
		TurnTimeout:   c.turnTimeout,
		MaxQuestions:  c.maxQuestions,
		GuessAttempts: c.guessAttempts,
		MaxTimeouts:   c.maxTimeouts,
		ThinkerExit:   game.ThinkerExitPolicy(c.thinkerExit),
		LateJoin:      game.LateJoinPolicy(c.lateJoin),
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("GUESSWORD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "guessword",
		Short:         "Room server for a twenty-questions style word guessing game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: GUESSWORD_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: GUESSWORD_PORT)")
	fs.DurationVar(&cfg.turnTimeout, "turn-timeout", internal.TurnTimeout, "time allowed to ask or answer (env: GUESSWORD_TURN_TIMEOUT)")
	fs.IntVar(&cfg.maxQuestions, "max-questions", internal.MaxQuestions, "questions per round before the guessing phase (env: GUESSWORD_MAX_QUESTIONS)")
	fs.IntVar(&cfg.guessAttempts, "guess-attempts", internal.GuessAttempts, "final guesses per player (env: GUESSWORD_GUESS_ATTEMPTS)")
	fs.IntVar(&cfg.maxTimeouts, "max-timeouts", internal.MaxTimeouts, "consecutive timeouts before a player is removed (env: GUESSWORD_MAX_TIMEOUTS)")
	fs.StringVar(&cfg.thinkerExit, "thinker-exit", string(game.ThinkerExitTeardown), "what happens when the thinker leaves: teardown or rotate (env: GUESSWORD_THINKER_EXIT)")
	fs.StringVar(&cfg.lateJoin, "late-join", string(game.LateJoinAppend), "mid-round joiners: append or next-round (env: GUESSWORD_LATE_JOIN)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle rooms are closed, 0 disables (env: GUESSWORD_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.wordList, "word-list", "", "CSV file of suggested secret words (env: GUESSWORD_WORD_LIST)")
	fs.StringVar(&cfg.databaseURL, "database-url", "", "postgres URL for the round archive (env: GUESSWORD_DATABASE_URL)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "trace, debug, info, warn or error (env: GUESSWORD_LOG_LEVEL)")
	fs.BoolVar(&cfg.pretty, "pretty", false, "human readable console logs (env: GUESSWORD_PRETTY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: GUESSWORD_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("guessword v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
