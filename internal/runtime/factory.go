package runtime

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// New creates the gateway for the named runtime.
func New(name string, log logrus.FieldLogger) (Gateway, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	switch name {
	case "podman":
		rt, err := NewPodmanRuntime(log)
		if err != nil {
			return nil, err
		}
		return rt, nil
	case "docker", "":
		rt, err := NewDockerRuntime(log)
		if err != nil {
			return nil, err
		}
		return rt, nil
	default:
		return nil, fmt.Errorf("unknown runtime %q, expected docker or podman", name)
	}
}
