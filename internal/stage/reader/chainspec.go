package reader

import "github.com/tacogips/nodestage/internal/stage/model"

// ReadChainspec extracts the network identity from a chainspec reader.
// Missing values are returned empty; callers decide whether that is fatal.
func ReadChainspec(r Reader) (model.ChainspecDescriptor, error) {
	name, _, err := r.Value("network", "name")
	if err != nil {
		return model.ChainspecDescriptor{}, err
	}
	version, _, err := r.Value("protocol", "version")
	if err != nil {
		return model.ChainspecDescriptor{}, err
	}
	return model.ChainspecDescriptor{NetworkName: name, ProtocolVersion: version}, nil
}
