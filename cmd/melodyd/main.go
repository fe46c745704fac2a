// Command melodyd is a headless daemon exposing the decoder control
// plane over a fixed playlist: it loads one configured stored
// playlist and plays its entries back to back through PortAudio,
// issuing START for each entry and QUIT on exit through the same
// command protocol a richer front-end (MPD's client protocol, a REST
// API, ...) would drive. It takes no SEEK or STOP requests of its own.
package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/soundwell/melodyd/internal/buffer"
	"github.com/soundwell/melodyd/internal/catalog"
	"github.com/soundwell/melodyd/internal/config"
	"github.com/soundwell/melodyd/internal/decoder"
	"github.com/soundwell/melodyd/internal/inputstream"
	"github.com/soundwell/melodyd/internal/pipe"
	"github.com/soundwell/melodyd/internal/player"
	"github.com/soundwell/melodyd/internal/plugin/mp3"
	"github.com/soundwell/melodyd/internal/playlist"
	"github.com/soundwell/melodyd/internal/replaygain"
	"github.com/soundwell/melodyd/internal/song"
)

func main() {
	var (
		configFile   = pflag.StringP("config-file", "c", "", "Configuration file path. Empty uses the platform config directory.")
		playlistName = pflag.StringP("playlist", "p", "", "Stored playlist to play. Required.")
		debug        = pflag.BoolP("debug", "d", false, "Enable verbose [DC]/[DECODER]/[PLAYER]/[STREAM]/[CATALOG] logging.")
	)
	pflag.Parse()

	if *playlistName == "" {
		fmt.Fprintln(os.Stderr, "melodyd: -playlist is required")
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("melodyd: load config: %v", err)
	}
	if *debug {
		cfg.Debug = true
	}

	if err := run(cfg, *playlistName); err != nil {
		log.Fatalf("melodyd: %v", err)
	}
}

func run(cfg *config.Config, playlistName string) error {
	cat, err := catalog.Open(cfg.Storage.DatabasePath, cfg.Debug)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer cat.Close()

	store := playlist.NewStore(cfg.Storage.PlaylistDir, cat)

	entries, result := store.Load(playlistName)
	if result != playlist.Success {
		return fmt.Errorf("load playlist %q: %s", playlistName, result)
	}
	if len(entries) == 0 {
		return fmt.Errorf("playlist %q is empty", playlistName)
	}

	rgCfg, err := replaygain.LoadConfigFile(cfg.ReplayGain.ConfigPath)
	if err != nil {
		return fmt.Errorf("load replay gain config: %w", err)
	}

	dc := decoder.NewControl(cfg.Debug)
	plugins := []decoder.FormatPlugin{mp3.New()}
	thread := decoder.NewThread(dc, plugins, openStream(cfg), rgCfg, cfg.Debug)

	go thread.Run()

	buf := buffer.New(cfg.Decoder.BufferChunks)
	p := pipe.New()
	pl := player.New(dc, buf, p, cfg.Debug)
	defer pl.Close()

	for _, entry := range entries {
		s := songFromURL(entry)

		if err := pl.Play(s); err != nil {
			log.Printf("melodyd: skipping %s: %v", entry, err)
			continue
		}

		for dc.State() == decoder.StateDecode || dc.State() == decoder.StateStart {
			pl.WaitForData(time.Second)
		}
	}

	return nil
}

func songFromURL(url string) *song.Song {
	return &song.Song{URL: url, Seekable: true}
}

// openStream resolves a song URL to an input stream: a local file path
// or an http(s):// URL.
func openStream(cfg *config.Config) decoder.StreamOpener {
	return func(rawURL string) (inputstream.Stream, error) {
		u, err := url.Parse(rawURL)
		if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
			return inputstream.OpenHTTP(context.Background(), rawURL, cfg.Stream.RequestsPerSecond, cfg.Stream.BurstSize, cfg.Debug)
		}

		mime := ""
		if strings.HasSuffix(strings.ToLower(rawURL), ".mp3") {
			mime = "audio/mpeg"
		}
		return inputstream.OpenFile(rawURL, mime)
	}
}
