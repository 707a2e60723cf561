package gcp

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// FirebaseConfig selects the project and optional service-account file for the Firebase app.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// NewApp creates a Firebase App. Without a credentials file it uses application default credentials.
func NewApp(ctx context.Context, cfg FirebaseConfig) (*firebase.App, error) {
	var appCfg *firebase.Config
	if cfg.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	return firebase.NewApp(ctx, appCfg, opts...)
}

// InitFirebaseAuth initializes the Firebase App and returns its Auth client.
func InitFirebaseAuth(ctx context.Context, cfg FirebaseConfig) (*firebaseauth.Client, error) {
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app [%w]", err)
	}

	fbAuth, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase auth [%w]", err)
	}

	return fbAuth, nil
}
