package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-vds/hsf"
	"github.com/robert-malhotra/go-vds/vds"
)

// job carries the plan parameters of a create or materialize run. Flags
// override whatever the job file sets.
type job struct {
	Output     string  `yaml:"output"`
	Shape      []int64 `yaml:"shape"`
	Partitions int     `yaml:"partitions"`
	Dtype      string  `yaml:"dtype"`
	Dataset    string  `yaml:"dataset"`
	Pattern    string  `yaml:"pattern"`
	FillValue  float64 `yaml:"fill_value"`
	Seed       int64   `yaml:"seed"`
}

func loadJob(path string) (*job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job file: %w", err)
	}
	var j job
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parsing job file %s: %w", path, err)
	}
	return &j, nil
}

// merge overlays non-zero flag values onto the job.
func (j *job) merge(o job) {
	if o.Output != "" {
		j.Output = o.Output
	}
	if len(o.Shape) > 0 {
		j.Shape = o.Shape
	}
	if o.Partitions != 0 {
		j.Partitions = o.Partitions
	}
	if o.Dtype != "" {
		j.Dtype = o.Dtype
	}
	if o.Dataset != "" {
		j.Dataset = o.Dataset
	}
	if o.Pattern != "" {
		j.Pattern = o.Pattern
	}
	if o.FillValue != 0 {
		j.FillValue = o.FillValue
	}
	if o.Seed != 0 {
		j.Seed = o.Seed
	}
}

func (j *job) spec() (vds.Spec, error) {
	if len(j.Shape) == 0 {
		return vds.Spec{}, fmt.Errorf("no shape given (use --shape or a job file)")
	}
	dtype, err := hsf.ParseDtype(j.Dtype)
	if err != nil {
		return vds.Spec{}, err
	}
	return vds.Spec{Shape: j.Shape, Dtype: dtype, Dataset: j.Dataset}, nil
}

// plan builds the partition plan a job describes.
func (j *job) plan() (*vds.Plan, error) {
	spec, err := j.spec()
	if err != nil {
		return nil, err
	}
	if j.Partitions == 0 {
		return nil, fmt.Errorf("no partition count given (use --partitions or a job file)")
	}
	opts := []vds.PlanOption{}
	if j.Pattern != "" {
		opts = append(opts, vds.WithPattern(j.Pattern))
	} else if j.Output != "" {
		opts = append(opts, vds.WithPattern(vds.DefaultPattern(stem(j.Output))))
	}
	return vds.NewPlan(spec, j.Partitions, opts...)
}

// parseShape reads a comma-separated dimension list ("1000,1064,1030").
func parseShape(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	shape := make([]int64, len(parts))
	for i, p := range parts {
		d, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad shape %q: %w", s, err)
		}
		shape[i] = d
	}
	return shape, nil
}

func parseExistsPolicy(token string) (vds.ExistsPolicy, error) {
	switch token {
	case "fail":
		return vds.ExistsFail, nil
	case "skip":
		return vds.ExistsSkip, nil
	case "overwrite":
		return vds.ExistsOverwrite, nil
	default:
		return 0, fmt.Errorf("unknown exists policy %q (want fail, skip, or overwrite)", token)
	}
}
