// Command tista trains a TISTA network on synthetic
// compressed sensing problems and prints the NMSE after
// every generation.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/unixpickle/tista"
)

func main() {
	cfg := tista.DefaultConfig()

	configPath := flag.String("config", "", "optional JSON config file (flags take precedence)")
	logLevel := flag.String("log-level", "warn", "log level (debug/info/warn/error)")
	flag.IntVar(&cfg.N, "n", cfg.N, "length of the source signal")
	flag.IntVar(&cfg.M, "m", cfg.M, "length of the observation vector")
	flag.Float64Var(&cfg.P, "p", cfg.P, "probability of a non-zero component")
	flag.Float64Var(&cfg.Alpha2, "alpha2", cfg.Alpha2, "variance of non-zero components")
	flag.IntVar(&cfg.BatchSize, "batch", cfg.BatchSize, "mini-batch size")
	flag.IntVar(&cfg.NumBatches, "batches", cfg.NumBatches, "mini-batches per generation")
	flag.IntVar(&cfg.NumGenerations, "generations", cfg.NumGenerations, "number of generations")
	flag.IntVar(&cfg.MaxLayers, "max-layers", cfg.MaxLayers, "maximum number of layers")
	flag.Float64Var(&cfg.SNR, "snr", cfg.SNR, "signal to noise ratio in dB")
	flag.Float64Var(&cfg.LearningRate, "lr", cfg.LearningRate, "Adam learning rate")
	flag.IntVar(&cfg.EvalBatches, "eval-batches", cfg.EvalBatches, "held-out batches per evaluation")
	flag.Uint64Var(&cfg.MatrixSeed, "matrix-seed", cfg.MatrixSeed, "seed for the sensing matrix")
	flag.Uint64Var(&cfg.SamplerSeed, "sampler-seed", cfg.SamplerSeed, "seed for signal generation")
	flag.Uint64Var(&cfg.NoiseSeed, "noise-seed", cfg.NoiseSeed, "seed for measurement noise")
	flag.Uint64Var(&cfg.GammaSeed, "gamma-seed", cfg.GammaSeed, "seed for initial gains")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tista [flags]")
		fmt.Fprintln(os.Stderr, "  Trains a TISTA network incrementally and reports NMSE per generation.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("parse log level: %v", err)
	}
	log.SetLevel(level)

	if *configPath != "" {
		if err := loadConfig(*configPath, cfg); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	trainer, err := tista.NewTrainer(cfg, log)
	if err != nil {
		log.Fatal(err)
	}
	log.WithFields(logrus.Fields{
		"sigma2": trainer.Network.Noise.Sigma2,
		"xi":     trainer.Network.Noise.Xi,
	}).Info("calibrated noise")

	trainer.Report = func(r tista.GenerationReport) {
		fmt.Printf("(%d) NMSE= %6.3f\n", r.Generation+1, r.NMSE)
	}

	start := time.Now()
	if _, err := trainer.Train(); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("elapsed_time:%f[sec]\n", time.Since(start).Seconds())
}

// loadConfig decodes a JSON config file into cfg and then
// re-applies every flag given on the command line.
func loadConfig(path string, cfg *tista.Config) error {
	explicit := map[string]string{}
	flag.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for name, value := range explicit {
		if err := flag.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}
