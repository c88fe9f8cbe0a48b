package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uptrace/bun"

	"blogpost-api/internal/auth"
	"blogpost-api/internal/config"
	apphttp "blogpost-api/internal/http"
	"blogpost-api/internal/logging"
	"blogpost-api/internal/repository/sqlite"
	"blogpost-api/internal/service"
	"blogpost-api/internal/snapshot"
	"blogpost-api/internal/storage"
)

var errSnapshotsDisabled = errors.New("storage bucket is required for snapshots (set storage.bucket)")

func newRootCmd() *cobra.Command {
	v := config.New()
	var cfgFile string

	root := &cobra.Command{
		Use:          "blogpost",
		Short:        "Blog post API server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), v, cfgFile)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a config file (default ./config.*)")
	root.PersistentFlags().String("db", "", "Path to the sqlite database")
	root.Flags().String("addr", "", "Address to listen on")
	_ = v.BindPFlag("database.path", root.PersistentFlags().Lookup("db"))
	_ = v.BindPFlag("server.addr", root.Flags().Lookup("addr"))

	root.AddCommand(newBackupCmd(v, &cfgFile))
	return root
}

func newBackupCmd(v *viper.Viper, cfgFile *string) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Upload a database snapshot to object storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return backup(cmd.Context(), v, *cfgFile, list, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List existing snapshots instead of taking one")
	return cmd
}

func setup(v *viper.Viper, cfgFile string) (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func openDB(path string) (*bun.DB, error) {
	sqldb, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return sqlite.NewDB(sqldb), nil
}

func serve(parent context.Context, v *viper.Viper, cfgFile string) error {
	cfg, logger, err := setup(v, cfgFile)
	if err != nil {
		return err
	}
	// fail before opening anything if the signing key is missing
	if err := cfg.Validate(); err != nil {
		logger.Errorf("invalid configuration: %v", err)
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	postRepo := sqlite.NewPostRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		return fmt.Errorf("init user repository: %w", err)
	}
	if err := postRepo.Init(ctx); err != nil {
		return fmt.Errorf("init post repository: %w", err)
	}

	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	issuer, err := auth.NewTokenIssuer(cfg.Auth.Token, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	postService := service.NewPostService(postRepo)
	authService := service.NewAuthService(userRepo, hasher, issuer)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(postService, authService, issuer, logger, cfg.CORS.AllowOrigins)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
	return nil
}

func backup(ctx context.Context, v *viper.Viper, cfgFile string, list bool, out io.Writer) error {
	cfg, logger, err := setup(v, cfgFile)
	if err != nil {
		return err
	}

	// snapshots are disabled until a bucket is configured
	if strings.TrimSpace(cfg.Storage.Bucket) == "" {
		return errSnapshotsDisabled
	}

	client, err := newS3Client(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("setup storage: %w", err)
	}

	db, err := openDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := snapshot.New(db, storage.NewS3Service(client), cfg.Storage.Bucket, cfg.Storage.KeyPrefix, logger)
	if err != nil {
		return err
	}

	if list {
		objects, err := snap.List(ctx)
		if err != nil {
			return err
		}
		for _, obj := range objects {
			modified := "-"
			if obj.LastModified != nil {
				modified = obj.LastModified.Format(time.RFC3339)
			}
			fmt.Fprintf(out, "%s\t%d\t%s\n", obj.Key, obj.Size, modified)
		}
		return nil
	}

	location, err := snap.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, location)
	return nil
}

// newS3Client builds the snapshot bucket client. A custom endpoint switches
// to path-style addressing for S3-compatible stores such as MinIO.
func newS3Client(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*s3.Client, error) {
	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if profile := cfg.AWS.Profile; profile != "" {
		opts = append(opts, awscfg.WithSharedConfigProfile(profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := cfg.Storage.Endpoint
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	logger.WithFields(logrus.Fields{
		"bucket":   cfg.Storage.Bucket,
		"region":   cfg.Storage.Region,
		"endpoint": endpoint,
	}).Debug("snapshot storage ready")
	return client, nil
}
