package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-vds/hsf"
	"github.com/robert-malhotra/go-vds/vds"
)

var (
	createOutput    string
	createShape     string
	createN         int
	createDtype     string
	createDataset   string
	createPattern   string
	createFillValue float64
	createJobFile   string
)

// createCmd writes the logical container: plan metadata plus the virtual
// dataset that stitches the shard files together.
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a logical container over not-yet-written shards",
	Long: `Divides the given shape along its leading axis into N partitions and
writes a logical container whose virtual dataset maps each partition
onto its shard file. The shards themselves need not exist yet; reading
an unmaterialized region returns the fill value.

Example:
  vds create -o out.hsf --shape 1000,1064,1030 -n 10 -p run_%03d.hsf`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createOutput, "output", "o", "", "logical container path (required)")
	createCmd.Flags().StringVarP(&createShape, "shape", "s", "", "global array shape, comma-separated, leading axis first")
	createCmd.Flags().IntVarP(&createN, "partitions", "n", 0, "number of partitions")
	createCmd.Flags().StringVarP(&createDtype, "dtype", "t", "float64", "element type")
	createCmd.Flags().StringVarP(&createDataset, "dataset", "d", "data", "dataset name")
	createCmd.Flags().StringVarP(&createPattern, "pattern", "p", "", "shard naming pattern (printf-style)")
	createCmd.Flags().Float64Var(&createFillValue, "fill-value", 0, "value read from unmaterialized regions")
	createCmd.Flags().StringVar(&createJobFile, "job", "", "YAML job file with plan parameters")
}

func runCreate(cmd *cobra.Command, args []string) error {
	shape, err := parseShape(createShape)
	if err != nil {
		return err
	}
	overlay := job{
		Output:     createOutput,
		Shape:      shape,
		Partitions: createN,
		Dtype:      createDtype,
		Dataset:    createDataset,
		Pattern:    createPattern,
		FillValue:  createFillValue,
	}
	// Flag defaults must not shadow job-file values.
	if !cmd.Flags().Changed("dtype") {
		overlay.Dtype = ""
	}
	if !cmd.Flags().Changed("dataset") {
		overlay.Dataset = ""
	}

	j := &job{Dtype: "float64", Dataset: "data"}
	if createJobFile != "" {
		loaded, err := loadJob(createJobFile)
		if err != nil {
			return err
		}
		if loaded.Dtype == "" {
			loaded.Dtype = "float64"
		}
		if loaded.Dataset == "" {
			loaded.Dataset = "data"
		}
		j = loaded
	}
	j.merge(overlay)
	if j.Output == "" {
		return fmt.Errorf("no output path given (use --output)")
	}

	plan, err := j.plan()
	if err != nil {
		return err
	}

	logger.Info("creating logical container",
		zap.String("path", j.Output),
		zap.Int64s("shape", plan.Spec.Shape),
		zap.Int("partitions", len(plan.Partitions)),
		zap.String("dtype", plan.Spec.Dtype.String()))

	f, err := hsf.Create(j.Output)
	if err != nil {
		return err
	}
	if _, err := vds.BuildView(f, plan, vds.WithFill(j.FillValue)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	for _, part := range plan.Partitions {
		logger.Debug("partition",
			zap.Int("index", part.Index),
			zap.Int64("start", part.Start),
			zap.Int64("end", part.End),
			zap.String("file", part.Target.Path))
	}
	logger.Info("logical container written", zap.String("path", j.Output))
	return nil
}

// stem strips the directory and extension from a container path, giving
// the default shard-name prefix.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
