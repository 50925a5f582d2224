package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"marketplace_console_go/config"
	"marketplace_console_go/db"
	"marketplace_console_go/logging"
	"marketplace_console_go/models"
	"marketplace_console_go/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	flagName  string
	flagEmail string
	flagRole  string
)

// rootCmd creates a console account from the terminal
var rootCmd = &cobra.Command{
	Use:   "create-employee",
	Short: "Create a console employee account",
	Long: `Create an employee who can sign in to the marketplace console.

Name and email are prompted for when not given as flags. The password is
always read from the terminal without echo.`,
	SilenceUsage: true,
	RunE:         runCreateEmployee,
}

func init() {
	rootCmd.Flags().StringVar(&flagName, "name", "", "employee name")
	rootCmd.Flags().StringVar(&flagEmail, "email", "", "login email")
	rootCmd.Flags().StringVar(&flagRole, "role", models.RoleEmployee, "employee, sales, admin or superadmin")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCreateEmployee(cmd *cobra.Command, args []string) error {
	config.LoadEnvFile()
	logger := logging.New(os.Getenv("ENVIRONMENT"))
	defer logger.Sync()

	cfg, err := config.Load(logger)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close(database)

	if err := db.AutoMigrate(database, &models.Employee{}, &models.Session{}); err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	out := cmd.OutOrStdout()

	name := flagName
	if name == "" {
		if name, err = prompt(reader, out, "Name: "); err != nil {
			return err
		}
	}
	email := flagEmail
	if email == "" {
		if email, err = prompt(reader, out, "Email: "); err != nil {
			return err
		}
	}

	fmt.Fprint(out, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	employee, err := services.CreateEmployee(database, name, email, string(password), flagRole)
	if err != nil {
		var verrs services.ValidationErrors
		if errors.As(err, &verrs) {
			for field, msg := range verrs.Fields() {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, msg)
			}
		}
		return err
	}

	logger.Info("employee created",
		zap.String("id", employee.ID),
		zap.String("email", employee.Email),
		zap.String("role", employee.Role),
	)
	fmt.Fprintf(out, "\nEmployee created: %s <%s> (%s)\n", employee.Name, employee.Email, employee.Role)
	fmt.Fprintf(out, "Sign in at %s/login\n", strings.TrimRight(cfg.AppURL, "/"))
	return nil
}

func prompt(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
