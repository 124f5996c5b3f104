// Package storage selects the artifact store configured by STORAGE_PROVIDER.
package storage

import (
	"context"

	"reelstudio/internal/adapters/storage/gdrive"
	"reelstudio/internal/adapters/storage/localfs"
	"reelstudio/internal/adapters/storage/minio"
	"reelstudio/internal/config"
	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/ports"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Provider is the artifact store shared by the API and the worker.
type Provider = ports.StorageProvider

// NewProvider builds the provider selected by STORAGE_PROVIDER.
func NewProvider(ctx context.Context, cfg config.StorageConfig, publicBaseURL string) (Provider, error) {
	switch cfg.Provider {
	case "localfs", "":
		return localfs.New(cfg.LocalRoot, publicBaseURL), nil

	case "gdrive":
		return newGDriveProvider(ctx, cfg)

	case "minio":
		c, err := minio.New(ctx, minio.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil

	default:
		return nil, errors.ValidationField("STORAGE_PROVIDER", "unknown storage provider: "+cfg.Provider)
	}
}

func newGDriveProvider(ctx context.Context, cfg config.StorageConfig) (Provider, error) {
	conf := &oauth2.Config{
		ClientID:     cfg.GDriveClientID,
		ClientSecret: cfg.GDriveClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}

	tok := &oauth2.Token{RefreshToken: cfg.GDriveRefreshToken}
	httpClient := conf.Client(context.Background(), tok)

	srv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "storage.gdrive", "create drive service")
	}

	return gdrive.NewClient(srv, cfg.GDriveFolderID, true), nil
}
