// Command enumguard watches the USB device-enumeration tree for identifiers
// whose stale instance records pile up and prunes them once a threshold is
// crossed.
//
// Typical use is an OS scheduler invoking `enumguard run` every minute; the
// scan_strategy section of the configuration decides whether a given
// invocation does any work. `enumguard watch` replaces the OS scheduler with
// an in-process polling loop.
package main
