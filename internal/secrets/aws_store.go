package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretsManagerAPI is the subset of the Secrets Manager client AWSStore uses.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	UpdateSecret(ctx context.Context, params *secretsmanager.UpdateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.UpdateSecretOutput, error)
	DeleteSecret(ctx context.Context, params *secretsmanager.DeleteSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error)
}

type AWSStore struct {
	client SecretsManagerAPI
}

func NewAWSStore(client SecretsManagerAPI) *AWSStore {
	return &AWSStore{client: client}
}

// NewAWSStoreFromRegion builds a store on the default credential chain.
func NewAWSStoreFromRegion(ctx context.Context, region string) (*AWSStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	return NewAWSStore(secretsmanager.NewFromConfig(cfg)), nil
}

func (s *AWSStore) Get(ctx context.Context, name string) (string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
		}
		slog.Info(err.Error())
		return "", err
	}
	return aws.ToString(out.SecretString), nil
}

func (s *AWSStore) Put(ctx context.Context, name, value string) (string, error) {
	out, err := s.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		SecretString: aws.String(value),
		Description:  aws.String("Social media API credentials for " + name),
	})
	if err == nil {
		return aws.ToString(out.ARN), nil
	}

	var exists *types.ResourceExistsException
	if !errors.As(err, &exists) {
		slog.Info(err.Error())
		return "", err
	}

	updated, err := s.client.UpdateSecret(ctx, &secretsmanager.UpdateSecretInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(value),
	})
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return aws.ToString(updated.ARN), nil
}

func (s *AWSStore) Delete(ctx context.Context, name string) error {
	// Skip the recovery window so reconnecting the same account can create
	// the secret again right away.
	_, err := s.client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(name),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		slog.Info(err.Error())
		return err
	}
	return nil
}
