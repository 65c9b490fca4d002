package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-vds/hsf"
	"github.com/robert-malhotra/go-vds/vds"
)

var infoDataset string

// infoCmd prints the decoded plan of a logical container.
var infoCmd = &cobra.Command{
	Use:   "info <container>",
	Short: "Show the partition plan of a logical container",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().StringVarP(&infoDataset, "dataset", "d", "", "dataset name (default: container's default)")
}

func runInfo(cmd *cobra.Command, args []string) error {
	f, err := hsf.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	plan, ds, err := vds.ReadPlan(f, infoDataset)
	if err != nil {
		return err
	}

	fmt.Printf("container:  %s\n", args[0])
	fmt.Printf("dataset:    %s\n", plan.Spec.Dataset)
	fmt.Printf("shape:      %v\n", plan.Spec.Shape)
	fmt.Printf("dtype:      %s\n", plan.Spec.Dtype)
	fmt.Printf("frames:     %d\n", plan.Spec.Frames())
	fmt.Printf("frame size: %d bytes\n", plan.Spec.FrameSize())
	fmt.Printf("partitions: %d\n", len(plan.Partitions))
	fmt.Printf("pattern:    %s\n", plan.Pattern)
	if plan.OriginalFile != "" {
		fmt.Printf("original:   %s\n", plan.OriginalFile)
	}
	if ds.IsVirtual() {
		fmt.Printf("layout:     virtual (%d mapping entries, fill %v)\n", len(ds.VirtualEntries()), ds.FillValue())
	} else {
		fmt.Printf("layout:     contiguous\n")
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tRANGE\tFRAMES\tKIND\tTARGET")
	for _, part := range plan.Partitions {
		fmt.Fprintf(w, "%d\t[%d,%d)\t%d\t%s\t%s\n",
			part.Index, part.Start, part.End, part.Frames(), part.Target.Kind, part.Target.Path)
	}
	return w.Flush()
}
