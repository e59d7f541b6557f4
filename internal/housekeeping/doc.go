// Package housekeeping lays out dated run directories and sweeps expired ones.
package housekeeping
