package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-vds/hsf"
	"github.com/robert-malhotra/go-vds/vds"
)

var (
	matVDS     string
	matShape   string
	matN       int
	matDtype   string
	matDataset string
	matPattern string
	matDir     string
	matFill    string
	matSeed    int64
	matExists  string
	matWorkers int
	matJobFile string
)

// materializeCmd writes the physical shard files of a plan. The plan
// comes either from a logical container's metadata or straight from
// shape parameters, matching the two creation workflows.
var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Write the shard files a plan describes",
	Long: `Creates one shard container per partition and fills it with data.

The plan is read back from a logical container's metadata when --vds is
given; otherwise it is built from --shape and --partitions without any
logical container, for producing source files ahead of the view.

Example:
  vds materialize --vds out.hsf --fill random --seed 7 --workers 4
  vds materialize -s 1000,1064,1030 -n 10 -C ./shards --fill zero`,
	RunE: runMaterialize,
}

func init() {
	materializeCmd.Flags().StringVar(&matVDS, "vds", "", "logical container to read the plan from")
	materializeCmd.Flags().StringVarP(&matShape, "shape", "s", "", "global array shape, comma-separated, leading axis first")
	materializeCmd.Flags().IntVarP(&matN, "partitions", "n", 0, "number of partitions")
	materializeCmd.Flags().StringVarP(&matDtype, "dtype", "t", "float64", "element type")
	materializeCmd.Flags().StringVarP(&matDataset, "dataset", "d", "data", "dataset name")
	materializeCmd.Flags().StringVarP(&matPattern, "pattern", "p", "", "shard naming pattern (printf-style)")
	materializeCmd.Flags().StringVarP(&matDir, "dir", "C", "", "directory for relative shard paths")
	materializeCmd.Flags().StringVar(&matFill, "fill", "zero", "shard content: zero or random")
	materializeCmd.Flags().Int64Var(&matSeed, "seed", 0, "seed for --fill random")
	materializeCmd.Flags().StringVar(&matExists, "exists", "fail", "existing file policy: fail, skip, or overwrite")
	materializeCmd.Flags().IntVar(&matWorkers, "workers", 1, "shards written concurrently")
	materializeCmd.Flags().StringVar(&matJobFile, "job", "", "YAML job file with plan parameters")
}

func runMaterialize(cmd *cobra.Command, args []string) error {
	plan, dir, err := materializePlan(cmd)
	if err != nil {
		return err
	}

	var src vds.DataSource
	switch matFill {
	case "zero":
		src = vds.ZeroFill{}
	case "random":
		src = vds.SyntheticRandom{Seed: matSeed}
	default:
		return fmt.Errorf("unknown fill %q (want zero or random)", matFill)
	}

	policy, err := parseExistsPolicy(matExists)
	if err != nil {
		return err
	}

	logger.Info("materializing shards",
		zap.Int("partitions", len(plan.Partitions)),
		zap.String("dir", dir),
		zap.String("fill", matFill),
		zap.Int("workers", matWorkers))

	mat := vds.NewMaterializer(
		vds.WithDir(dir),
		vds.WithExistsPolicy(policy),
		vds.WithWorkers(matWorkers),
		vds.WithProgress(vds.NewZapProgress(logger)),
	)
	report, err := mat.Materialize(cmd.Context(), plan, src)
	if err != nil {
		return err
	}

	logger.Info("materialization finished",
		zap.Int("created", report.Created()),
		zap.Int("skipped", report.Skipped()),
		zap.Int("failed", report.Failed()))
	if !report.Ok() {
		return fmt.Errorf("%d of %d partitions failed", report.Failed(), len(report.Outcomes))
	}
	return nil
}

// materializePlan resolves the plan and the directory shard paths are
// relative to.
func materializePlan(cmd *cobra.Command) (*vds.Plan, string, error) {
	if matVDS != "" {
		f, err := hsf.Open(matVDS)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		name := "" // let ReadPlan pick the container's default dataset
		if cmd.Flags().Changed("dataset") {
			name = matDataset
		}
		plan, _, err := vds.ReadPlan(f, name)
		if err != nil {
			return nil, "", err
		}
		dir := matDir
		if dir == "" {
			dir = filepath.Dir(matVDS)
		}
		return plan, dir, nil
	}

	shape, err := parseShape(matShape)
	if err != nil {
		return nil, "", err
	}
	overlay := job{
		Shape:      shape,
		Partitions: matN,
		Dtype:      matDtype,
		Dataset:    matDataset,
		Pattern:    matPattern,
		Seed:       matSeed,
	}
	if !cmd.Flags().Changed("dtype") {
		overlay.Dtype = ""
	}
	if !cmd.Flags().Changed("dataset") {
		overlay.Dataset = ""
	}

	j := &job{Dtype: "float64", Dataset: "data"}
	if matJobFile != "" {
		loaded, err := loadJob(matJobFile)
		if err != nil {
			return nil, "", err
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

	plan, err := j.plan()
	if err != nil {
		return nil, "", err
	}
	dir := matDir
	if dir == "" {
		dir = "."
	}
	return plan, dir, nil
}
