package ffmpeg

import (
	"fmt"
	"strings"

	"storyreel/internal/timeline"
)

const (
	sampleRate  = 44100
	audioFormat = "aresample=44100,aformat=sample_fmts=fltp:channel_layouts=stereo"
)

// MixArgs renders the audio plan to one AAC file exactly plan.Total long.
// Each track is built from its pieces (looped sources, silence for gaps),
// padded and trimmed per piece, then the tracks are mixed without
// normalization so the planned volumes hold.
func MixArgs(plan timeline.AudioPlan, output string) []string {
	b := &mixBuilder{args: []string{"-y"}}

	var tracks []string
	for _, t := range []struct {
		name  string
		track timeline.AudioTrack
	}{
		{"narr", plan.Narration},
		{"native", plan.Native},
		{"music", plan.Music},
	} {
		if t.track.Empty() {
			continue
		}
		tracks = append(tracks, b.track(t.name, t.track))
	}

	total := sec(plan.Total)
	switch len(tracks) {
	case 0:
		b.graph = append(b.graph, fmt.Sprintf("anullsrc=r=%d:cl=stereo,atrim=0:%s[aout]", sampleRate, total))
	case 1:
		b.graph = append(b.graph, fmt.Sprintf("[%s]apad,atrim=0:%s,asetpts=PTS-STARTPTS[aout]", tracks[0], total))
	default:
		var in strings.Builder
		for _, t := range tracks {
			in.WriteString("[" + t + "]")
		}
		b.graph = append(b.graph,
			fmt.Sprintf("%samix=inputs=%d:duration=longest:normalize=0[mix]", in.String(), len(tracks)),
			fmt.Sprintf("[mix]apad,atrim=0:%s,asetpts=PTS-STARTPTS[aout]", total),
		)
	}

	return append(b.args,
		"-filter_complex", strings.Join(b.graph, ";"),
		"-map", "[aout]",
		"-t", total,
		"-c:a", "aac",
		"-b:a", "192k",
		"-ar", fmt.Sprintf("%d", sampleRate),
		output,
	)
}

type mixBuilder struct {
	args   []string
	graph  []string
	inputs int
}

func (b *mixBuilder) input(path string, loop bool) int {
	if loop {
		b.args = append(b.args, "-stream_loop", "-1")
	}
	b.args = append(b.args, "-i", path)
	b.inputs++
	return b.inputs - 1
}

// track builds one labelled track and returns its label.
func (b *mixBuilder) track(name string, t timeline.AudioTrack) string {
	var labels strings.Builder
	for i, p := range t.Pieces {
		label := fmt.Sprintf("%s%d", name, i)
		d := sec(p.Duration)
		if p.Path == "" {
			b.graph = append(b.graph, fmt.Sprintf("anullsrc=r=%d:cl=stereo,atrim=0:%s,asetpts=PTS-STARTPTS[%s]",
				sampleRate, d, label))
		} else {
			idx := b.input(p.Path, p.Loop)
			b.graph = append(b.graph, fmt.Sprintf("[%d:a]%s,apad,atrim=0:%s,asetpts=PTS-STARTPTS[%s]",
				idx, audioFormat, d, label))
		}
		labels.WriteString("[" + label + "]")
	}

	out := name
	if len(t.Pieces) == 1 {
		b.graph = append(b.graph, fmt.Sprintf("%svolume=%s[%s]", labels.String(), num(t.Volume), out))
	} else {
		b.graph = append(b.graph, fmt.Sprintf("%sconcat=n=%d:v=0:a=1,volume=%s[%s]",
			labels.String(), len(t.Pieces), num(t.Volume), out))
	}
	return out
}
