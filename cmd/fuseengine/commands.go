package main

import (
    "context"
    "fmt"
    "os"
    "os/signal"
    "syscall"

    "github.com/fatih/color"
    "github.com/olekukonko/tablewriter"
    "github.com/spf13/cobra"

    "github.com/dirflash/fuse-pairing/internal/attendance"
    "github.com/dirflash/fuse-pairing/internal/models"
    "github.com/dirflash/fuse-pairing/pkg/logger"
)

var (
    green  = color.New(color.FgGreen).SprintFunc()
    red    = color.New(color.FgRed).SprintFunc()
    yellow = color.New(color.FgYellow).SprintFunc()
)

func createIntakeCommand() *cobra.Command {
    var date string

    cmd := &cobra.Command{
        Use:   "intake <roster.csv>",
        Short: "Parse an attendance roster and replace the session's Attendance Record",
        Args:  cobra.ExactArgs(1),
        RunE: func(cmd *cobra.Command, args []string) error {
            ctx := context.Background()

            f, err := os.Open(args[0])
            if err != nil {
                return fmt.Errorf("failed to open roster: %w", err)
            }
            defer f.Close()

            rows, err := attendance.ParseRoster(f)
            if err != nil {
                return fmt.Errorf("failed to parse roster: %w", err)
            }

            record := attendance.BuildRecord(date, rows)

            existed, err := svc.prematch.EnsureDate(ctx, date)
            if err != nil {
                return fmt.Errorf("failed to record prematch bookkeeping: %w", err)
            }

            if err := svc.attendanceStore.Save(ctx, record); err != nil {
                return fmt.Errorf("failed to save attendance record: %w", err)
            }

            fmt.Printf("%s Attendance record for %s saved: %d accepted, %d declined, %d tentative, %d no response\n",
                green("✓"), date, len(record.Accepted), len(record.Declined), len(record.Tentative), len(record.NoResponse))
            if existed {
                fmt.Println(yellow("note: this date already had an intake; membership has been fully replaced"))
            }
            return nil
        },
    }

    cmd.Flags().StringVar(&date, "date", "", "Session date (YYYY-MM-DD)")
    cmd.MarkFlagRequired("date")

    return cmd
}

func createRunCommand() *cobra.Command {
    var (
        date     string
        testMode bool
    )

    cmd := &cobra.Command{
        Use:   "run",
        Short: "Run the pairing engine against a session's stored Attendance Record",
        RunE: func(cmd *cobra.Command, args []string) error {
            ctx := context.Background()

            record, err := svc.attendanceStore.Load(ctx, date)
            if err != nil {
                return fmt.Errorf("failed to load attendance record: %w", err)
            }
            if len(record.EffectiveAttendance()) == 0 {
                return fmt.Errorf("no effective attendance found for %s; run intake first", date)
            }

            outcome := svc.engine.Run(ctx, date, record, testMode)

            switch outcome.Kind {
            case models.OutcomeSuccess:
                fmt.Printf("%s Session %s complete: %s\n", green("✓"), date, outcome.Filename)
                return nil
            case models.OutcomeInfeasiblePersist:
                fmt.Printf("%s Session %s wrote %s but history persistence failed: %v\n",
                    red("✗"), date, outcome.Filename, outcome.Err)
                return fmt.Errorf("pairing run did not complete")
            default:
                fmt.Printf("%s Session %s infeasible: %v\n", red("✗"), date, outcome.Err)
                return fmt.Errorf("pairing run did not complete")
            }
        },
    }

    cmd.Flags().StringVar(&date, "date", "", "Session date (YYYY-MM-DD)")
    cmd.Flags().BoolVar(&testMode, "test", false, "Run without mutating history or writing a CSV")
    cmd.MarkFlagRequired("date")

    return cmd
}

func createDirectoryCommand() *cobra.Command {
    dirCmd := &cobra.Command{
        Use:   "directory",
        Short: "Inspect and manage the SE directory",
    }

    dirCmd.AddCommand(createDirectoryAddCommand(), createDirectoryShowCommand())
    return dirCmd
}

func createDirectoryAddCommand() *cobra.Command {
    var displayName string

    cmd := &cobra.Command{
        Use:   "add <alias>",
        Short: "Register a new SE with the auto-provisioning VIP default",
        Args:  cobra.ExactArgs(1),
        RunE: func(cmd *cobra.Command, args []string) error {
            ctx := context.Background()
            se, err := svc.dirStore.RegisterUnknown(ctx, args[0], displayName)
            if err != nil {
                return fmt.Errorf("failed to register SE: %w", err)
            }
            fmt.Printf("%s Registered %s (%s), region=%s index=%d\n", green("✓"), se.Alias, se.DisplayName, se.RegionName, se.RegionIndex)
            return nil
        },
    }

    cmd.Flags().StringVar(&displayName, "display-name", "", "Display name")
    cmd.MarkFlagRequired("display-name")

    return cmd
}

func createDirectoryShowCommand() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "show <alias>...",
        Short: "Resolve one or more aliases and print their directory record",
        Args:  cobra.MinimumNArgs(1),
        RunE: func(cmd *cobra.Command, args []string) error {
            ctx := context.Background()
            resolved, err := svc.dirStore.ResolveAll(ctx, args)
            if err != nil {
                return fmt.Errorf("failed to resolve aliases: %w", err)
            }

            table := tablewriter.NewWriter(os.Stdout)
            table.SetHeader([]string{"Alias", "Display Name", "Region", "Index", "SEM"})
            table.SetBorder(false)

            for _, alias := range args {
                se := resolved[alias]
                sem := ""
                if se.SEM {
                    sem = "yes"
                }
                table.Append([]string{se.Alias, se.DisplayName, se.RegionName, fmt.Sprintf("%d", se.RegionIndex), sem})
            }

            table.Render()
            return nil
        },
    }

    return cmd
}

func createHistoryCommand() *cobra.Command {
    historyCmd := &cobra.Command{
        Use:   "history",
        Short: "Inspect pairing history",
    }
    historyCmd.AddCommand(createHistoryShowCommand())
    return historyCmd
}

func createHistoryShowCommand() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "show <alias>",
        Short: "Print an SE's full date -> partner history",
        Args:  cobra.ExactArgs(1),
        RunE: func(cmd *cobra.Command, args []string) error {
            ctx := context.Background()
            hist, err := svc.histStore.History(ctx, args[0])
            if err != nil {
                return fmt.Errorf("failed to load history: %w", err)
            }

            table := tablewriter.NewWriter(os.Stdout)
            table.SetHeader([]string{"Date", "Partner"})
            table.SetBorder(false)
            for date, partner := range hist {
                table.Append([]string{date, partner})
            }
            table.Render()
            return nil
        },
    }

    return cmd
}

func createServeCommand() *cobra.Command {
    return &cobra.Command{
        Use:   "serve",
        Short: "Run the health and metrics sidecar until terminated",
        RunE: func(cmd *cobra.Command, args []string) error {
            logger.Info("fuseengine sidecar running")

            sigChan := make(chan os.Signal, 1)
            signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
            <-sigChan

            logger.Info("shutting down sidecar")
            if svc.healthSvc != nil {
                svc.healthSvc.Stop()
            }
            return nil
        },
    }
}
