// Package services defines the error taxonomy shared by the pipeline
// stages and the external-tool wrappers, plus the Wrap helper that tags
// failures with stage context for later classification.
package services
