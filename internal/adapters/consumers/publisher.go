package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/trebuchet-org/ensmock/internal/domain"
	"github.com/trebuchet-org/ensmock/internal/domain/config"
	"github.com/trebuchet-org/ensmock/internal/usecase"
	"gopkg.in/yaml.v3"
)

// Environment keys written for dotenv consumers
const (
	EnvRegistryAddress = "ENS_REGISTRY_ADDRESS"
	EnvResolverAddress = "ENS_RESOLVER_ADDRESS"
	EnvRootOwner       = "ENS_ROOT_OWNER"
)

// File names written into the output directory
const (
	DotenvFile = ".env"
	JSONFile   = "ensmock.json"
	YAMLFile   = "ensmock.yaml"
)

// Publisher writes the registry location for each negotiated consumer
type Publisher struct {
	consumers []domain.Consumer
	outputDir string
	log       *slog.Logger
}

// NewPublisher creates a publisher for the consumers negotiated in cfg
func NewPublisher(cfg *config.RuntimeConfig, log *slog.Logger) *Publisher {
	p := &Publisher{
		outputDir: cfg.ProjectRoot,
		log:       log.With("component", "ConsumerPublisher"),
	}
	if cfg.Ens != nil {
		p.consumers = cfg.Ens.Consumers
		if cfg.Ens.OutputDir != "" {
			p.outputDir = cfg.Ens.OutputDir
			if !filepath.IsAbs(p.outputDir) {
				p.outputDir = filepath.Join(cfg.ProjectRoot, p.outputDir)
			}
		}
	}
	return p
}

// Publish writes info for every negotiated consumer and returns the written paths
func (p *Publisher) Publish(ctx context.Context, info *domain.RegistryInfo) ([]string, error) {
	var written []string
	for _, consumer := range p.consumers {
		var (
			path string
			err  error
		)
		switch consumer {
		case domain.ConsumerDotenv:
			path, err = p.writeDotenv(info)
		case domain.ConsumerJSON:
			path, err = p.writeJSON(info)
		case domain.ConsumerYAML:
			path, err = p.writeYAML(info)
		default:
			err = fmt.Errorf("%w: %q", domain.ErrUnknownConsumer, consumer)
		}
		if err != nil {
			return written, fmt.Errorf("consumer %s: %w", consumer, err)
		}
		p.log.Debug("published registry address", "consumer", consumer, "path", path)
		written = append(written, path)
	}
	return written, nil
}

// writeDotenv merges the registry keys into an existing dotenv file
func (p *Publisher) writeDotenv(info *domain.RegistryInfo) (string, error) {
	path := filepath.Join(p.outputDir, DotenvFile)

	env := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		existing, err := godotenv.Read(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		env = existing
	}

	env[EnvRegistryAddress] = info.RegistryAddress.Hex()
	env[EnvRootOwner] = info.Owner.Hex()
	if info.ResolverAddress != nil {
		env[EnvResolverAddress] = info.ResolverAddress.Hex()
	} else {
		delete(env, EnvResolverAddress)
	}

	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", p.outputDir, err)
	}
	if err := godotenv.Write(env, path); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (p *Publisher) writeJSON(info *domain.RegistryInfo) (string, error) {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", err
	}
	return p.write(JSONFile, append(data, '\n'))
}

func (p *Publisher) writeYAML(info *domain.RegistryInfo) (string, error) {
	data, err := yaml.Marshal(info)
	if err != nil {
		return "", err
	}
	return p.write(YAMLFile, data)
}

func (p *Publisher) write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", p.outputDir, err)
	}
	path := filepath.Join(p.outputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

var _ usecase.ConsumerPublisher = (*Publisher)(nil)
