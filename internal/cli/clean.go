package cli

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hubclean/internal/adapters"
	"hubclean/internal/app"
	"hubclean/internal/core"
	"hubclean/internal/types"
)

type cleanOptions struct {
	Namespace    string
	Repositories []string
	KeepLast     int
	MinAgeDays   int
	ExcludeTags  []string
	DryRun       bool
	Schedule     string
	Report       string
	Endpoint     string
	Username     string
	Token        string
	TimeoutSec   int
	Retries      int
	RetryDelayMs int
}

func newCleanCommand() *cobra.Command {
	opts := cleanOptions{}
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete old Docker Hub image tags based on retention policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClean(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Namespace, "namespace", "", "Docker Hub namespace (defaults to username)")
	cmd.Flags().StringSliceVar(&opts.Repositories, "repo", nil, "Repository to clean (repeatable; empty = all in namespace)")
	cmd.Flags().IntVar(&opts.KeepLast, "keep-last", 5, "Keep the N most recently updated tags per repository")
	cmd.Flags().IntVar(&opts.MinAgeDays, "min-age-days", 30, "Only delete tags at least this many days old")
	cmd.Flags().StringSliceVar(&opts.ExcludeTags, "exclude-tag", []string{"latest"}, "Tag name never deleted (repeatable)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", true, "Only report delete decisions without deleting")
	cmd.Flags().StringVar(&opts.Schedule, "schedule", "", "5-field cron expression for recurring runs (empty = run once)")
	cmd.Flags().StringVar(&opts.Report, "report", "", "Write the run summary to this YAML file")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "Docker Hub API base URL")
	cmd.Flags().StringVar(&opts.Username, "username", "", "Docker Hub username")
	cmd.Flags().StringVar(&opts.Token, "token", "", "Docker Hub access token (prefer HUBCLEAN_TOKEN)")
	cmd.Flags().IntVar(&opts.TimeoutSec, "timeout", 30, "Docker Hub HTTP timeout in seconds (0 = default)")
	cmd.Flags().IntVar(&opts.Retries, "retries", 3, "Docker Hub request retries (0 = default)")
	cmd.Flags().IntVar(&opts.RetryDelayMs, "retry-delay-ms", 200, "Retry base delay in ms (0 = default)")

	_ = viper.BindPFlag("namespace", cmd.Flags().Lookup("namespace"))
	_ = viper.BindPFlag("repos", cmd.Flags().Lookup("repo"))
	_ = viper.BindPFlag("keep_last", cmd.Flags().Lookup("keep-last"))
	_ = viper.BindPFlag("min_age_days", cmd.Flags().Lookup("min-age-days"))
	_ = viper.BindPFlag("exclude_tags", cmd.Flags().Lookup("exclude-tag"))
	_ = viper.BindPFlag("dry_run", cmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("schedule", cmd.Flags().Lookup("schedule"))
	_ = viper.BindPFlag("report", cmd.Flags().Lookup("report"))
	_ = viper.BindPFlag("endpoint", cmd.Flags().Lookup("endpoint"))
	_ = viper.BindPFlag("username", cmd.Flags().Lookup("username"))
	_ = viper.BindPFlag("token", cmd.Flags().Lookup("token"))
	_ = viper.BindPFlag("timeout_sec", cmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("retries", cmd.Flags().Lookup("retries"))
	_ = viper.BindPFlag("retry_delay_ms", cmd.Flags().Lookup("retry-delay-ms"))

	return cmd
}

func runClean(ctx context.Context, cmd *cobra.Command, opts cleanOptions) error {
	username := resolveString(cmd, opts.Username, "username", "username")
	token := resolveString(cmd, opts.Token, "token", "token")
	if username == "" || token == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("username and token are required")
	}
	namespace := resolveString(cmd, opts.Namespace, "namespace", "namespace")
	if namespace == "" {
		namespace = username
	}
	policy := types.RetentionPolicy{
		KeepLastN:   resolveInt(cmd, opts.KeepLast, "keep_last", "keep-last"),
		MinAgeDays:  resolveInt(cmd, opts.MinAgeDays, "min_age_days", "min-age-days"),
		ExcludeTags: resolveStrings(cmd, opts.ExcludeTags, "exclude_tags", "exclude-tag"),
		DryRun:      resolveBool(cmd, opts.DryRun, "dry_run", "dry-run"),
	}
	if err := core.ValidatePolicy(ctx, policy); err != nil {
		return err
	}
	if err := core.ValidateTarget(ctx, namespace); err != nil {
		return err
	}

	registry := adapters.NewDockerHubAdapter(adapters.DockerHubConfig{
		Endpoint:     resolveString(cmd, opts.Endpoint, "endpoint", "endpoint"),
		Username:     username,
		Token:        token,
		TimeoutSec:   resolveInt(cmd, opts.TimeoutSec, "timeout_sec", "timeout"),
		Retries:      resolveInt(cmd, opts.Retries, "retries", "retries"),
		RetryDelayMs: resolveInt(cmd, opts.RetryDelayMs, "retry_delay_ms", "retry-delay-ms"),
	})
	service := app.NewService(registry)
	request := app.RunRequest{
		Namespace:    namespace,
		Repositories: resolveStrings(cmd, opts.Repositories, "repos", "repo"),
		Policy:       policy,
		ReportPath:   resolveString(cmd, opts.Report, "report", "report"),
	}

	if schedule := resolveString(cmd, opts.Schedule, "schedule", "schedule"); schedule != "" {
		scheduler, err := app.NewScheduler(service, request, schedule)
		if err != nil {
			return err
		}
		return scheduler.Start(ctx)
	}

	summary, err := service.Run(ctx, request)
	if err != nil {
		return err
	}
	if summary.DryRun {
		fmt.Printf("dry-run: checked=%d would-delete=%d kept=%d\n", summary.Checked, summary.Deleted, summary.Kept)
		return nil
	}
	fmt.Printf("checked=%d deleted=%d kept=%d failed=%d\n", summary.Checked, summary.Deleted, summary.Kept, summary.Failed)
	return nil
}
