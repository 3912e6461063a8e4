// Package connectors holds the sources that feed files into a scope.
// A connector scans a location for files and reports later changes;
// folder sync turns those changes into uploads, replacements and deletions.
package connectors
