package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	hraws "github.com/optitalent/hr-backend/internal/aws"
	"github.com/optitalent/hr-backend/internal/config"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
	"github.com/testcontainers/testcontainers-go/wait"
)

const LocalStackSender = "no-reply@optitalent.test"

type TestLocalStack struct {
	Container *localstack.LocalStackContainer
	Config    config.AWSConfig
	Email     *hraws.SESService
	SES       *ses.Client
}

func NewTestLocalStack(t *testing.T) *TestLocalStack {
	ctx := context.Background()

	container, err := localstack.Run(ctx,
		"localstack/localstack:3.0",
		testcontainers.WithReuseByName("hr-backend-test-localstack"),
		testcontainers.WithEnv(map[string]string{"SERVICES": "ses"}),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("Ready.").
					WithOccurrence(1).
					WithStartupTimeout(60*time.Second),
				wait.ForListeningPort("4566/tcp").
					WithStartupTimeout(60*time.Second),
			),
		),
	)
	require.NoError(t, err, "Failed to start LocalStack container")

	endpoint, err := container.PortEndpoint(ctx, "4566/tcp", "http")
	require.NoError(t, err, "Failed to get LocalStack endpoint")

	cfg := config.AWSConfig{
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		EndpointURL:     endpoint,
		FromEmail:       LocalStackSender,
	}

	awsCfg, err := hraws.LoadAWSConfig(ctx, cfg)
	require.NoError(t, err, "Failed to load AWS config")

	client := ses.NewFromConfig(awsCfg, func(o *ses.Options) {
		o.BaseEndpoint = &cfg.EndpointURL
	})

	ls := &TestLocalStack{
		Container: container,
		Config:    cfg,
		Email:     hraws.NewSESServiceFromClient(client, cfg.FromEmail),
		SES:       client,
	}

	t.Cleanup(ls.Close)

	return ls
}

func (ls *TestLocalStack) Close() {
	if ls.Container != nil {
		_ = ls.Container.Terminate(context.Background())
	}
}

// Cleanup removes every verified identity.
func (ls *TestLocalStack) Cleanup(t *testing.T) {
	ctx := context.Background()

	listOut, err := ls.SES.ListIdentities(ctx, &ses.ListIdentitiesInput{})
	if err != nil {
		t.Logf("Failed to list identities: %v", err)
		return
	}

	for _, identity := range listOut.Identities {
		_, err := ls.SES.DeleteIdentity(ctx, &ses.DeleteIdentityInput{
			Identity: &identity,
		})
		if err != nil {
			t.Logf("Failed to delete identity %s: %v", identity, err)
		}
	}
}
