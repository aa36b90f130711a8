package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dimitrije/smsdesk/internal/channel"
	"github.com/dimitrije/smsdesk/internal/config"
	"github.com/dimitrije/smsdesk/internal/database"
	"github.com/dimitrije/smsdesk/internal/events"
	"github.com/dimitrije/smsdesk/internal/logger"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/services"
	"github.com/dimitrije/smsdesk/internal/tokens"
	"github.com/dimitrije/smsdesk/internal/transport"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// connect opens the database for a command.
var connect = database.New

type env struct {
	cfg *config.Config
	db  *database.DB
	log zerolog.Logger
}

func main() {
	log := logger.Console(os.Getenv("LOG_LEVEL"))

	roleFlag := &cli.StringFlag{
		Name:     "role",
		Usage:    "role to change",
		Required: true,
	}

	app := cli.App{
		Name:  "smsdesk-admin",
		Usage: "Administration tasks for smsdesk",
		Commands: []*cli.Command{
			{
				Name:      "create-user",
				Usage:     "Create a user, or return the existing one",
				ArgsUsage: "<email> <name>",
				Action:    withEnv(log, createUser),
			},
			{
				Name:      "promote",
				Usage:     "Give a user a role",
				ArgsUsage: "<email>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "role",
						Value: models.RoleSuperAdmin,
					},
				},
				Action: withEnv(log, promote),
			},
			{
				Name:      "grant",
				Usage:     "Grant permissions to a role",
				ArgsUsage: "<permission>...",
				Flags:     []cli.Flag{roleFlag},
				Action:    withEnv(log, grant),
			},
			{
				Name:      "revoke",
				Usage:     "Revoke permissions from a role",
				ArgsUsage: "<permission>...",
				Flags:     []cli.Flag{roleFlag},
				Action:    withEnv(log, revoke),
			},
			{
				Name:      "unlock",
				Usage:     "Release the edit lock of a text message",
				ArgsUsage: "<sms id>",
				Action:    withEnv(log, unlock),
			},
			{
				Name:  "broadcast",
				Usage: "Send published list messages to their pending contacts",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "channel", Value: channel.ChannelSms},
					&cli.StringFlag{Name: "id", Usage: "only broadcast this message"},
					&cli.IntFlag{Name: "limit", Value: 100, Usage: "contacts per batch"},
					&cli.IntFlag{Name: "max-batches", Usage: "batches per message, 0 for all"},
				},
				Action: withEnv(log, broadcast),
			},
			{
				Name:      "token",
				Usage:     "Issue an access token for a user",
				ArgsUsage: "<email>",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "expiry", Usage: "override JWT_ACCESS_EXPIRY"},
				},
				Action: withEnv(log, issueToken),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func withEnv(log zerolog.Logger, fn func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		db, err := connect(c.Context, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(c.Context); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		return fn(c, &env{cfg: cfg, db: db, log: log})
	}
}

func createUser(c *cli.Context, e *env) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: create-user <email> <name>")
	}
	user, err := services.NewUserService(e.db).Create(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	fmt.Printf("%s %s (%s)\n", user.ID, user.Email, user.Role)
	return nil
}

func promote(c *cli.Context, e *env) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: promote <email>")
	}
	email, role := c.Args().First(), c.String("role")
	if err := services.NewUserService(e.db).SetRole(c.Context, email, role); err != nil {
		return fmt.Errorf("promote %s: %w", email, err)
	}
	fmt.Printf("Successfully gave %s the role %s\n", email, role)
	return nil
}

func grant(c *cli.Context, e *env) error {
	perms := services.NewPermissionService(e.db)
	role := c.String("role")
	for _, p := range c.Args().Slice() {
		if err := perms.Grant(c.Context, role, p); err != nil {
			return fmt.Errorf("grant %s: %w", p, err)
		}
		e.log.Info().Str("role", role).Str("permission", p).Msg("granted")
	}
	return nil
}

func revoke(c *cli.Context, e *env) error {
	perms := services.NewPermissionService(e.db)
	role := c.String("role")
	for _, p := range c.Args().Slice() {
		if err := perms.Revoke(c.Context, role, p); err != nil {
			return fmt.Errorf("revoke %s: %w", p, err)
		}
		e.log.Info().Str("role", role).Str("permission", p).Msg("revoked")
	}
	return nil
}

func unlock(c *cli.Context, e *env) error {
	id, err := uuid.Parse(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid sms id: %w", err)
	}
	store := services.NewSmsService(e.db)
	sms, err := store.GetByID(c.Context, id)
	if err != nil {
		return err
	}
	if err := store.Unlock(c.Context, sms); err != nil {
		return err
	}
	fmt.Printf("Unlocked %s\n", sms.Name)
	return nil
}

func broadcast(c *cli.Context, e *env) error {
	req := channel.BroadcastRequest{
		Channel:    c.String("channel"),
		Limit:      c.Int("limit"),
		MaxBatches: c.Int("max-batches"),
	}
	if raw := c.String("id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid sms id: %w", err)
		}
		req.ID = &id
	}

	registry, err := newRegistry(c.Context, e)
	if err != nil {
		return err
	}

	results, err := registry.Broadcast(c.Context, req)
	for _, r := range results {
		fmt.Printf("%s: sent %d, failed %d\n", r.Channel, r.Sent, r.Failed)
	}
	return err
}

func newRegistry(ctx context.Context, e *env) (*channel.Registry, error) {
	store := services.NewSmsService(e.db)
	lookups := services.NewLookupService(e.db, e.cfg.BaseURL)
	pass := tokens.NewPass(services.NewTrackableService(e.db, e.cfg.BaseURL),
		tokens.ContactProvider{},
		tokens.NewPageProvider(tokens.URLLookupFunc(lookups.PageURL)),
		tokens.NewAssetProvider(tokens.URLLookupFunc(lookups.AssetURL)),
	)

	var gateway transport.Gateway = transport.NewLogGateway(e.log)
	if e.cfg.SMS.Enabled {
		gateway = transport.NewHTTPGateway(ctx, transport.HTTPGatewayConfig{
			URL:          e.cfg.SMS.GatewayURL,
			TokenURL:     e.cfg.SMS.TokenURL,
			ClientID:     e.cfg.SMS.ClientID,
			ClientSecret: e.cfg.SMS.ClientSecret,
			Sender:       e.cfg.SMS.Sender,
		})
	}

	sender := services.NewSenderService(store, services.NewStatsService(e.db), gateway, e.log, nil, events.TokenReplacement(pass))

	registry := channel.NewRegistry()
	channel.RegisterSms(registry)
	if err := registry.OnBroadcast(channel.ChannelSms, sender.Broadcast); err != nil {
		return nil, err
	}
	return registry, nil
}

func issueToken(c *cli.Context, e *env) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: token <email>")
	}
	user, err := services.NewUserService(e.db).GetByEmail(c.Context, c.Args().First())
	if err != nil {
		return err
	}

	jwtService := services.NewJWTService(e.cfg.JWTSecret, e.cfg.JWTAccessExpiry)
	var token string
	if expiry := c.Duration("expiry"); expiry > 0 {
		token, err = jwtService.GenerateAccessTokenWithExpiry(user.ID, user.Email, user.Name, user.Role, expiry)
	} else {
		token, err = jwtService.GenerateAccessToken(user.ID, user.Email, user.Name, user.Role)
	}
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
