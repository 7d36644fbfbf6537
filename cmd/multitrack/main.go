// Multitrack renders a set of audio stems, or the tracks of a MIDI file, into
// a video of scrolling waveforms.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/peragwin/multitrack/config"
	"github.com/peragwin/multitrack/gfx"
	"github.com/peragwin/multitrack/midi"
	"github.com/peragwin/multitrack/render"
	"github.com/peragwin/multitrack/song"
	"github.com/peragwin/multitrack/video"
)

const defaultSong = "./song.json"

var (
	songPath   string
	midiPath   string
	windowPath string
	preset     string
	pngDir     string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "multitrack",
	Short: "Render audio stems or a MIDI file into a waveform video",
	Long: `multitrack draws one waveform per audio channel, or one scrolling piano
roll lane per MIDI track, and encodes the frames to a video with ffmpeg.

With neither --song nor --midi the song config is read from ./song.json.`,
	Args:         cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		win, err := config.ResolveWindow(windowPath, preset)
		if errors.Is(err, config.ErrUnknownPreset) {
			cmd.Usage()
		}
		if err != nil {
			return err
		}
		if songPath == "" && midiPath == "" {
			songPath = defaultSong
		}
		if songPath != "" {
			return renderSong(songPath, win)
		}
		return renderMidi(midiPath, win)
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&songPath, "song", "s", "", "song config with one audio file per channel")
	f.StringVarP(&midiPath, "midi", "m", "", "midi config, used when no song is given")
	f.StringVarP(&windowPath, "window", "w", "./window.json", "window config")
	f.StringVarP(&preset, "window-preset", "p", "",
		"use a builtin window instead of the config: "+strings.Join(config.PresetNames(), ", "))
	f.StringVar(&pngDir, "png-dir", "", "write numbered png frames to this folder instead of a video")
	f.BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	withGoFlags(rootCmd, flag.CommandLine)
}

// withGoFlags exposes fs (glog registers its flags on flag.CommandLine) on
// cmd. pflag sets the values directly, so fs only has to be marked parsed
// before the command runs; glog checks that before honouring them.
func withGoFlags(cmd *cobra.Command, fs *flag.FlagSet) {
	cmd.PersistentFlags().AddGoFlagSet(fs)
	cmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		return fs.Parse(nil)
	}
}

func openEncoder(out string, win config.Window) (*video.Encoder, string, error) {
	if pngDir != "" {
		enc, err := video.Open("png", pngDir, win)
		return enc, pngDir, err
	}
	enc, err := video.Open("ffmpeg", out, win)
	return enc, out, err
}

func run(src render.Source, out string, win config.Window) error {
	enc, dest, err := openEncoder(out, win)
	if err != nil {
		return err
	}

	var progress *render.Progress
	if !quiet {
		progress = render.NewProgress(os.Stdout, 40)
	}
	fmt.Println("Starting render")
	n, err := render.Run(src, enc, gfx.NewFrame(win.Width, win.Height), progress)
	if err != nil {
		return err
	}
	fmt.Printf("Finished rendering %d frames to %s\n", n, dest)
	return nil
}

func renderSong(path string, win config.Window) error {
	cfg, err := config.LoadSong(path)
	if err != nil {
		return err
	}
	s, err := song.Load(cfg, win)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("Loaded %d channels\n\n", len(s.Channels))
	fmt.Println(s.Table())
	return run(s, cfg.VideoFileOut, win)
}

func renderMidi(path string, win config.Window) error {
	cfg, err := config.LoadMidi(path)
	if err != nil {
		return err
	}
	s, err := midi.Load(cfg, win)
	if err != nil {
		return err
	}

	fmt.Printf("Loaded %d tracks from %s, %.1fs long\n\n", len(s.Channels), cfg.MidiFile, s.Duration())
	return run(s, cfg.VideoFileOut, win)
}

func main() {
	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		glog.Exitf("render failed: %v", err)
	}
}
