package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/tacogips/nodestage/internal/stage/catalog"
	"github.com/tacogips/nodestage/internal/stage/model"
	"github.com/tacogips/nodestage/internal/stage/reader"
)

// Profile file keys.
const (
	ProfileSourceURL   = "SOURCE_URL"
	ProfileNetworkName = "NETWORK_NAME"
)

var validate = validator.New()

// ProfilePath returns the profile file of network below dir.
func ProfilePath(dir, network string) string {
	return filepath.Join(dir, network+".conf")
}

// LoadProfile reads {dir}/{network}.conf. Both SOURCE_URL and NETWORK_NAME are required.
func LoadProfile(dir, network string) (model.NetworkProfile, error) {
	if network == "" {
		return model.NetworkProfile{}, NewConfigErrorWithField(ConfigValidationFailed, "", "network", "network name is required")
	}
	path := ProfilePath(dir, network)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NetworkProfile{}, NewConfigErrorWithCause(ConfigNotFound, path, "network profile not found", err)
		}
		return model.NetworkProfile{}, NewConfigErrorWithCause(ConfigInvalid, path, "failed to open network profile", err)
	}
	defer func() { _ = f.Close() }()

	values, err := reader.ParseKeyValue(path, f)
	if err != nil {
		return model.NetworkProfile{}, err
	}

	for _, key := range []string{ProfileSourceURL, ProfileNetworkName} {
		if values[key] == "" {
			return model.NetworkProfile{}, model.NewMissingProfileKeyError(path, key)
		}
	}

	profile := model.NetworkProfile{
		SourceURL:   catalog.BaseURL(values[ProfileSourceURL]),
		NetworkName: values[ProfileNetworkName],
	}
	if err := ValidateProfile(profile); err != nil {
		return model.NetworkProfile{}, NewConfigErrorWithCause(ConfigValidationFailed, path, "invalid network profile", err)
	}
	return profile, nil
}

// ValidateProfile checks a profile's fields.
func ValidateProfile(profile model.NetworkProfile) error {
	if err := validate.Struct(profile); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			first := errs[0]
			return fmt.Errorf("field %s failed %q validation", first.Field(), first.Tag())
		}
		return err
	}
	return nil
}
