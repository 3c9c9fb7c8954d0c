package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/client"
	"resolveit/backend/internal/complaint"
	"resolveit/backend/internal/config"
	"resolveit/backend/internal/escalation"
	"resolveit/backend/internal/models"
	"resolveit/backend/internal/storage"

	gormlogger "gorm.io/gorm/logger"
)

const usage = `Usage: admin <command> [args]

Commands working on the database (RESOLVEIT_DB_DSN):
  promote <username> <USER|OFFICER|ADMIN>
  escalate-overdue    (no websocket or Telegram alerts; use trigger for those)

Commands working through the API (RESOLVEIT_API_URL, RESOLVEIT_TOKEN):
  complaints [status]
  trigger`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	ctx := context.Background()
	var err error

	switch os.Args[1] {
	case "promote":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin promote <username> <USER|OFFICER|ADMIN>")
			os.Exit(1)
		}
		store := openStore(ctx)
		err = promote(ctx, store, os.Args[2], os.Args[3])
		_ = store.Close()
	case "escalate-overdue":
		store := openStore(ctx)
		err = escalateOverdue(ctx, store)
		_ = store.Close()
	case "complaints":
		status := ""
		if len(os.Args) > 2 {
			status = os.Args[2]
		}
		err = listComplaints(ctx, status)
	case "trigger":
		err = trigger(ctx)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context) *storage.Service {
	dsn := os.Getenv("RESOLVEIT_DB_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			os.Getenv("DB_HOST"),
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
			os.Getenv("DB_PORT"),
		)
	}
	svc, err := storage.OpenPostgres(ctx, dsn, gormlogger.Warn)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to connect database:", err)
		os.Exit(1)
	}
	return svc
}

// promote replaces a user's roles. Every account keeps USER.
func promote(ctx context.Context, s storage.Storage, username, roleName string) error {
	role, ok := auth.ParseRole(roleName)
	if !ok || role == auth.RoleSystem || role == auth.RoleAnonymous {
		return fmt.Errorf("unknown role %q", roleName)
	}

	user, err := s.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("user %q not found", username)
	}
	if err != nil {
		return err
	}

	roles := []string{models.RoleUser}
	if role != auth.RoleUser {
		roles = append(roles, role.String())
	}
	if err := s.UpdateUserRoles(ctx, user.ID, roles); err != nil {
		return err
	}
	fmt.Printf("User %s now has roles %v.\n", user.Username, roles)
	return nil
}

// escalateOverdue runs one escalation pass without the API server.
func escalateOverdue(ctx context.Context, s storage.Storage) error {
	name := os.Getenv("RESOLVEIT_WORKFLOW")
	if name == "" {
		name = "standard"
	}
	wf, err := config.LoadWorkflow(name)
	if err != nil {
		return err
	}

	esc := escalation.NewService(s, wf, complaint.NewService(s, wf), escalation.DefaultConfig())
	res, err := esc.RunOnce(ctx, "admin-cli")
	if err != nil {
		return err
	}
	fmt.Printf("Considered %d, escalated %d, skipped %d, failed %d.\n", res.Considered, res.Escalated, res.Skipped, res.Failed)
	return nil
}

func apiClient() (*client.Client, string, error) {
	base := os.Getenv("RESOLVEIT_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	token := os.Getenv("RESOLVEIT_TOKEN")
	if token == "" {
		return nil, "", errors.New("RESOLVEIT_TOKEN is not set")
	}
	return client.New(base, client.WithTimeout(15*time.Second)), token, nil
}

func listComplaints(ctx context.Context, status string) error {
	c, token, err := apiClient()
	if err != nil {
		return err
	}

	var list []client.Complaint
	err = client.Retry(ctx, client.DefaultRetryPolicy, func(ctx context.Context) error {
		var err error
		if status == "" {
			list, err = c.All(ctx, token)
		} else {
			list, err = c.Filter(ctx, token, status, "", "")
		}
		return err
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tURGENCY\tCATEGORY\tOFFICER\tDEADLINE\tESCALATED")
	for _, cmp := range list {
		officer := "-"
		if cmp.AssignedOfficer != nil {
			officer = cmp.AssignedOfficer.FullName
		}
		deadline := "-"
		if cmp.Deadline != nil {
			deadline = cmp.Deadline.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			cmp.ID, cmp.Status, cmp.Urgency, cmp.Category, officer, deadline, strconv.FormatBool(cmp.Escalated))
	}
	return w.Flush()
}

func trigger(ctx context.Context) error {
	c, token, err := apiClient()
	if err != nil {
		return err
	}

	var res *escalation.RunResult
	err = client.Retry(ctx, client.DefaultRetryPolicy, func(ctx context.Context) error {
		var err error
		res, err = c.TriggerEscalation(ctx, token)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Printf("Escalated %d of %d candidates %v.\n", res.Escalated, res.Considered, res.EscalatedIDs)
	return nil
}
