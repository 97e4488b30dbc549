package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/journal"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past provisioning runs",
	Long: `History lists the provisioning runs recorded in the journal,
newest first. Flashing wipes disks; the journal is the record of what
this tool did to which device and how far it got.`,
	Run: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its step events",
	Args:  cobra.ExactArgs(1),
	Run:   runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	historyCmd.AddCommand(historyShowCmd)
}

func openJournal() *journal.Journal {
	cfg := loadConfig()

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
		os.Exit(1)
	}
	return j
}

func runHistory(cmd *cobra.Command, args []string) {
	j := openJournal()
	defer j.Close()

	runs, err := j.GetRuns(historyLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading journal: %v\n", err)
		os.Exit(1)
	}

	if historyJSON {
		out, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding runs: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDEVICE\tIMAGE\tSIZE\tSTATUS\tSTARTED")
	for _, run := range runs {
		size := ""
		if run.SystemSizeGB > 0 {
			size = fmt.Sprintf("%d GB", run.SystemSizeGB)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID, run.Device, run.Image, size, run.Status, humanize.Time(run.StartedAt))
	}
	w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	j := openJournal()
	defer j.Close()

	run, err := j.GetRun(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading journal: %v\n", err)
		os.Exit(1)
	}
	if run == nil {
		fmt.Fprintf(os.Stderr, "No run with id %s\n", args[0])
		os.Exit(1)
	}

	fmt.Printf("Run:     %s\n", run.ID)
	fmt.Printf("Device:  %s\n", run.Device)
	fmt.Printf("Image:   %s\n", run.Image)
	if run.SystemSizeGB > 0 {
		fmt.Printf("Size:    %d GB\n", run.SystemSizeGB)
	}
	fmt.Printf("Status:  %s\n", run.Status)
	if run.Error != "" {
		fmt.Printf("Error:   %s\n", run.Error)
	}
	fmt.Printf("Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.FinishedAt != nil {
		fmt.Printf("Ended:   %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	}

	steps, err := j.GetSteps(run.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading steps: %v\n", err)
		os.Exit(1)
	}
	if len(steps) == 0 {
		return
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSTEP\tSTATUS\tDETAIL")
	for _, step := range steps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			step.Timestamp.Format("15:04:05"), step.Name, step.Status, step.Detail)
	}
	w.Flush()
}
