// @title Praças API
// @version 1.0
// @description Backend do portal de avaliação de praças.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"pracas_backend/internal/app"
	"pracas_backend/internal/config"
	"pracas_backend/pkg/database"
	"pracas_backend/pkg/logger"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const version = "1.0.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pracas",
		Short: "Praças survey and administration backend",
	}

	serve := serveCmd()
	root.AddCommand(serve, migrateCmd(), createAdminCmd())

	// 无子命令时默认启动服务
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(app.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.SkipMigrate, _ = cmd.Flags().GetBool("skip-migrate")

			printStartUpBanner()
			application := app.NewApp(cfg)
			defer logger.Log.Sync()

			application.Run()
			return nil
		},
	}
	cmd.Flags().Bool("skip-migrate", false, "do not migrate the database on startup")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, spatial, err := app.OpenDatabase(cfg)
			if err != nil {
				return err
			}
			if err := database.Migrate(db, spatial); err != nil {
				return err
			}
			log.Println("数据库迁移完成，退出程序")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an active user holding every role",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			email, _ := f.GetString("email")
			name, _ := f.GetString("name")
			password, _ := f.GetString("password")

			if password == "" {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return fmt.Errorf("--password is required when stdin is not a terminal")
				}
				fmt.Print("Password: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Println()
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimSpace(string(raw))
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, spatial, err := app.OpenDatabase(cfg)
			if err != nil {
				return err
			}
			if err := database.Migrate(db, spatial); err != nil {
				return err
			}

			user, err := app.NewAuthService(db, cfg).CreateAdmin(email, name, password)
			if err != nil {
				return err
			}
			fmt.Printf("Admin %s created with id %d\n", user.Email, user.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.String("email", "", "admin e-mail (required)")
	f.String("name", "Administrador", "display name")
	f.String("password", "", "admin password, prompted when omitted")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func printStartUpBanner() {
	banner := figure.NewFigure("PRACAS", "", true)
	banner.Print()

	fmt.Println("======================================================")
	fmt.Printf("Praças API (v%s)\n\n", version)
}
