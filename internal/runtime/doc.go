// Package runtime implements the dispatcher behind the hookbus facade: the
// listener registry, two-phase event dispatch with a forced-last core
// listener, the serialised command pipeline and the log and exception
// fan-out that ride on the same machinery.
package runtime
