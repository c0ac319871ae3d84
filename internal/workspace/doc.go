// Package workspace manages the per-run scratch directory that holds all
// intermediate files. The directory is created on entry, exclusively
// locked for the lifetime of the run, and removed on exit, including
// error exits.
package workspace
