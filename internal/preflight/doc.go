// Package preflight provides readiness checks for the directories, the farm
// service and the local renderer that renderfarm depends on.
//
// The CLI "renderfarm doctor" command runs RunAll and prints each result.
package preflight
