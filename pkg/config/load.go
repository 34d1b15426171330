package config

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Load reads the file at path over Default(). YAML files are validated against Schema before
// decoding; files ending with .hcl are read as HCL and files ending with .hcl.json as the
// JSON form of the same HCL schema.
func Load(path string) (*Config, error) {
	return LoadWith(ioutil.ReadFile, path)
}

func LoadWith(readFile func(string) ([]byte, error), path string) (*Config, error) {
	src, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	conf := Default()

	switch format(path) {
	case ".hcl", ".hcl.json":
		if err := decodeHCL(path, src, conf); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := decodeYAML(src, conf); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("loading %s: unsupported config format %q", path, filepath.Ext(path))
	}

	return conf, nil
}

func format(path string) string {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".hcl.json") {
		return ".hcl.json"
	}
	return filepath.Ext(lower)
}

func decodeYAML(src []byte, conf *Config) error {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return err
	}

	if doc == nil {
		return nil
	}

	schemaLoader := gojsonschema.NewStringLoader(Schema)
	docLoader := gojsonschema.NewGoLoader(doc)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("validate: %s", strings.Join(msgs, "; "))
	}

	return yaml.Unmarshal(src, conf)
}

// Schema is the JSON schema YAML config files are validated against.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "definitions": {
    "platform": {
      "type": "object",
      "additionalProperties": false,
      "required": ["source"],
      "properties": {
        "source": {"type": "string", "minLength": 1},
        "entryPoint": {"type": "string"},
        "selector": {
          "type": "object",
          "properties": {
            "matchLabels": {
              "type": "object",
              "properties": {
                "os": {"type": "string"},
                "arch": {"type": "string"}
              }
            }
          }
        }
      }
    }
  },
  "properties": {
    "workDir": {"type": "string"},
    "reverse": {"type": "boolean"},
    "debug": {"type": "boolean"},
    "discovery": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "catalogURL": {"type": "string"},
        "descriptorURL": {"type": "string"},
        "commitField": {"type": "string"},
        "toolchainField": {"type": "string"},
        "coreVersionMarker": {"type": "string"}
      }
    },
    "provisioning": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "toolchains": {
          "type": "array",
          "items": {
            "type": "object",
            "additionalProperties": false,
            "required": ["generation", "platforms"],
            "properties": {
              "generation": {"type": "integer", "minimum": 8},
              "platforms": {"type": "array", "items": {"$ref": "#/definitions/platform"}}
            }
          }
        },
        "auxiliary": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "name": {"type": "string"},
            "platforms": {"type": "array", "items": {"$ref": "#/definitions/platform"}}
          }
        },
        "buildTools": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "source": {"type": "string"},
            "fileName": {"type": "string"}
          }
        }
      }
    },
    "naming": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "tool": {"type": "string"},
        "artifact": {"type": "string"}
      }
    },
    "relocation": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "serverJars": {"type": "string"},
        "internalArtifacts": {"type": "string"},
        "overwrite": {"type": "boolean"}
      }
    },
    "metrics": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "pushGateway": {"type": "string"},
        "job": {"type": "string"},
        "buckets": {"type": "array", "items": {"type": "number", "exclusiveMinimum": 0}},
        "constLabels": {"type": "object", "additionalProperties": {"type": "string"}}
      }
    },
    "remediate": {"type": "array", "items": {"type": "string"}}
  }
}`
