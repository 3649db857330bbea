package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/newsviews/internal/pipeline"
	"github.com/wonny/newsviews/internal/scheduler"
	"github.com/wonny/newsviews/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Scheduled views generation",
	Long: `Runs views generation on a cron schedule ($PIPELINE_SCHEDULE, seconds first).

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs and next run
  run     - run a job now and wait for it

Example:
  go run ./cmd/views scheduler start
  go run ./cmd/views scheduler list
  go run ./cmd/views scheduler run views_generation`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== News Views Scheduler ===")

	a, sched, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.Close()

	// /metrics on its own port while the daemon runs
	var metricsServer *http.Server
	if a.metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		metricsServer = &http.Server{
			Addr:              ":" + a.cfg.MetricsPort,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(ctx)
	}

	fmt.Println("Scheduler stopped")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.Close()

	// entries only have a next run once cron is running
	sched.Start()
	defer sched.Stop()

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, sched, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Running job: %s\n", jobName)

	result, err := sched.RunJobSync(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	fmt.Printf("   Attempts: %d\n", result.Attempts)
	fmt.Printf("   Duration: %s\n", result.Duration.Round(time.Millisecond))
	if !result.Success {
		return fmt.Errorf("job %s failed: %s", jobName, result.Error)
	}

	PrintSuccess("Job completed")
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		next, err := sched.NextRun(jobName)
		if err != nil || next.IsZero() {
			fmt.Printf("  - %s\n", jobName)
			continue
		}
		fmt.Printf("  - %s (next: %s)\n", jobName, next.Format("2006-01-02 15:04:05"))
	}
}

func initScheduler() (*app, *scheduler.Scheduler, error) {
	a, err := newApp(context.Background(), true)
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(a.log)

	job := jobs.NewViewsJob(a.orchestrator, a.cfg.Pipeline.Instruments, a.cfg.Pipeline.Schedule, a.log)
	job.OnResult = func(r *pipeline.RunResult) {
		a.log.WithFields(map[string]interface{}{
			"run_id":      r.RunID,
			"config_hash": r.ConfigHash,
			"instruments": len(r.Instruments),
		}).Debug("Views run recorded")
	}

	if err := sched.AddJob(job); err != nil {
		a.Close()
		return nil, nil, fmt.Errorf("register job: %w", err)
	}

	return a, sched, nil
}
