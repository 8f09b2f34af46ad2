package slicer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jmylchreest/clipforge/internal/concat"
	"github.com/jmylchreest/clipforge/internal/ffmpeg"
)

// Cluster is a run of nearby keyword sentences rendered as one jumpcut.
type Cluster struct {
	Segments []Segment
}

// Duration sums the sentence durations in the cluster.
func (c Cluster) Duration() float64 {
	var d float64
	for _, s := range c.Segments {
		d += s.End - s.Start
	}
	return d
}

// BuildClusters selects keyword sentences (with their immediate
// neighbors), groups them by time gap, and caps each cluster's total
// duration.
func BuildClusters(transcript *Transcript, p Profile) []Cluster {
	segments := transcript.Segments
	if len(segments) == 0 {
		return nil
	}

	keywords := append(append([]string{}, p.HighKeywords...), p.MidKeywords...)
	selected := make(map[int]bool)
	for i, s := range segments {
		if !matchesAny(s.Text, keywords) {
			continue
		}
		selected[i] = true
		if i > 0 {
			selected[i-1] = true
		}
		if i < len(segments)-1 {
			selected[i+1] = true
		}
	}
	if len(selected) == 0 {
		return nil
	}

	indices := make([]int, 0, len(selected))
	for i := range selected {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	var clusters []Cluster
	var current []Segment
	for _, idx := range indices {
		seg := segments[idx]
		if len(current) > 0 && seg.Start-current[len(current)-1].End >= p.MaxClusterGap {
			clusters = append(clusters, Cluster{Segments: current})
			current = nil
		}
		current = append(current, seg)
	}
	if len(current) > 0 {
		clusters = append(clusters, Cluster{Segments: current})
	}

	if p.MaxOutputDuration > 0 {
		for i := range clusters {
			clusters[i] = capCluster(clusters[i], p.MaxOutputDuration)
		}
	}
	return clusters
}

// capCluster drops trailing sentences once the running total exceeds the
// cap. At least one sentence always survives.
func capCluster(c Cluster, maxDur float64) Cluster {
	var total float64
	for i, s := range c.Segments {
		total += s.End - s.Start
		if total > maxDur && i > 0 {
			return Cluster{Segments: c.Segments[:i]}
		}
	}
	return c
}

// runJumpcut renders each sentence cluster by re-encoding per sentence
// and concat-copying the pieces.
func (s *Slicer) runJumpcut(ctx context.Context, req Request, p Profile, transcript *Transcript) (*Result, error) {
	clusters := BuildClusters(transcript, p)
	if len(clusters) == 0 {
		return &Result{}, nil
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	work, err := os.MkdirTemp(req.OutputDir, ".jumpcut-*")
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(filepath.Base(req.Input), filepath.Ext(req.Input))
	result := &Result{}
	for ci, cluster := range clusters {
		pieces := make([]string, 0, len(cluster.Segments))
		for si, seg := range cluster.Segments {
			piece := filepath.Join(work, fmt.Sprintf("c%02d_s%03d.mp4", ci, si))
			w := Window{Start: seg.Start, End: seg.End}
			if err := s.encodeSlice(ctx, req.Input, w, piece, req.UseGPU); err != nil {
				return nil, fmt.Errorf("cluster %d sentence %d: %w", ci+1, si+1, err)
			}
			pieces = append(pieces, piece)
		}

		token := uuid.NewString()[:8]
		out := filepath.Join(req.OutputDir, fmt.Sprintf("%s_jumpcut_%02d_%s.mp4", stem, ci+1, token))
		if err := s.concatCopy(ctx, work, ci, pieces, out); err != nil {
			return nil, fmt.Errorf("cluster %d: %w", ci+1, err)
		}
		result.Slices = append(result.Slices, out)
		result.Windows = append(result.Windows, Window{
			Start: cluster.Segments[0].Start,
			End:   cluster.Segments[len(cluster.Segments)-1].End,
		})
	}

	os.RemoveAll(work)
	return result, nil
}

func (s *Slicer) concatCopy(ctx context.Context, work string, ci int, pieces []string, out string) error {
	listPath := filepath.Join(work, fmt.Sprintf("c%02d.txt", ci))
	if err := concat.WriteListFile(listPath, pieces); err != nil {
		return err
	}
	args := ffmpeg.NewCommandBuilder().
		Input(listPath, "-f", "concat", "-safe", "0").
		OutputArgs("-c", "copy").
		FastStart().
		Output(out).
		Build()
	_, err := s.runner.Run(ctx, s.tools.FFmpeg, args)
	return err
}
