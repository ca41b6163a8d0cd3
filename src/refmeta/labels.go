package refmeta

import "time"

// Standard OpenContainers image labels.
const (
	LabelSource   = "org.opencontainers.image.source"
	LabelRevision = "org.opencontainers.image.revision"
	LabelCreated  = "org.opencontainers.image.created"
	LabelVersion  = "org.opencontainers.image.version"
	LabelRefName  = "org.opencontainers.image.ref.name"
)

// Labels builds the OCI label set attached to the image manifest.
// sourceURL is the repository URL; projectVersion (from the project
// manifest) fills the version label when the ref itself is not a release.
// The returned map is complete at creation and never mutated afterwards.
func (m *Meta) Labels(sourceURL, projectVersion string) map[string]string {
	labels := map[string]string{
		LabelRevision: m.FullSHA,
		LabelCreated:  m.CommitTime.Format(time.RFC3339),
		LabelRefName:  m.Ref.Name,
	}

	if sourceURL != "" {
		labels[LabelSource] = sourceURL
	}

	if v := m.Version(); v != nil {
		labels[LabelVersion] = v.String()
	} else if projectVersion != "" {
		labels[LabelVersion] = projectVersion
	}

	return labels
}
