package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/aws"
	"github.com/optitalent/hr-backend/internal/config"
	"github.com/optitalent/hr-backend/internal/identity"
	"github.com/optitalent/hr-backend/internal/notifications"
	"github.com/optitalent/hr-backend/internal/queue"
	"github.com/optitalent/hr-backend/internal/rbac"
)

type LocalStackEmail struct {
	ID          string    `json:"Id"`
	Timestamp   string    `json:"Timestamp"`
	Subject     string    `json:"Subject"`
	Body        EmailBody `json:"Body"`
	Destination Dest      `json:"Destination"`
}
type EmailBody struct {
	Text string `json:"text_part"`
	HTML string `json:"html_part"`
}
type Dest struct {
	ToAddresses []string `json:"ToAddresses"`
}
type LocalStackResponse struct {
	Messages []LocalStackEmail `json:"messages"`
}

var (
	toPtr      = flag.String("to", "test@optitalent.dev", "Recipient address")
	enqueuePtr = flag.Bool("enqueue", false, "Enqueue a sample role-change notice for the worker")
	viewPtr    = flag.Bool("view", false, "View the emails")
	testPtr    = flag.Bool("test", false, "Send a test email directly through SES")
)

// emailer is a local development helper for the notice pipeline.
func main() {
	flag.Parse()

	cfg := config.Load()

	if *enqueuePtr {
		q, err := queue.NewQueue(&cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to queue: %v", err)
		}
		defer q.Close()

		tmpl, err := notifications.DefaultTemplates()
		if err != nil {
			log.Fatalf("Failed to load templates: %v", err)
		}

		log.Printf("Enqueuing role change notice to %s...", *toPtr)
		notifications.NewDispatcher(q, tmpl).RoleChanged(context.Background(), &identity.RoleChange{
			Account: &identity.Account{
				ID:         uuid.New(),
				Email:      *toPtr,
				EmployeeID: "E-0000",
				Role:       rbac.RoleManager,
			},
			Previous: rbac.RoleEmployee,
		}, uuid.Nil)
		log.Println("Done; run the worker to deliver it")
		return
	}

	if *viewPtr {
		viewEmails(cfg.AWS.EndpointURL)
		return
	}

	if *testPtr {
		ctx := context.Background()
		svc, err := aws.NewSESService(ctx, cfg.AWS)
		if err != nil {
			log.Fatalf("Failed to create email service: %v", err)
		}

		log.Printf("Verifying sender identity %s...", svc.Sender())
		if err := svc.VerifyEmailIdentity(ctx); err != nil {
			log.Fatalf("Failed to verify email identity: %v", err)
		}

		log.Printf("Sending email to %s...", *toPtr)
		if err := svc.SendEmail(ctx, *toPtr, "OptiTalent test email", "SES delivery works."); err != nil {
			log.Fatalf("Failed to send email: %v", err)
		}
		log.Println("Email sent successfully!")

		viewEmails(cfg.AWS.EndpointURL)
		return
	}

	flag.Usage()
}

func viewEmails(endpoint string) {
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}
	log.Println("--- LocalStack SES Inbox ---")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(endpoint + "/_aws/ses")
	if err != nil {
		log.Printf("Failed to fetch LocalStack messages: %v", err)
		return
	}
	defer resp.Body.Close()

	bodyData, _ := io.ReadAll(resp.Body)
	var lsResp LocalStackResponse
	if err := json.Unmarshal(bodyData, &lsResp); err != nil {
		log.Printf("Failed to parse LocalStack response: %v\nRaw body: %s", err, string(bodyData))
		return
	}

	if len(lsResp.Messages) == 0 {
		fmt.Println("No messages found in LocalStack.")
		return
	}

	fmt.Printf("\nFound %d message(s):\n", len(lsResp.Messages))
	for i, msg := range lsResp.Messages {
		fmt.Printf("\n[%d] Time: %s\n", i+1, msg.Timestamp)
		fmt.Printf("To: %v\n", msg.Destination.ToAddresses)
		fmt.Printf("Subject: %s\n", msg.Subject)
		fmt.Printf("Body: %s\n", msg.Body.Text)
		fmt.Println("---------------------------------------------------")
	}
}
