// Package scyjava runs Java code from Go without JNI.
//
// The package manages a gateway JVM subprocess and exchanges values with it
// over length-prefixed MessagePack frames. Maven artifacts are resolved on
// demand, a matching Java distribution is downloaded when the system has
// none, and a priority-ordered converter registry maps values between the
// Go and Java type systems in both directions.
//
// Typical use configures endpoints, starts the JVM, and imports classes:
//
//	scyjava.AddEndpoints("org.scijava:parsington:3.1.0")
//	if err := scyjava.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer scyjava.Shutdown()
//
//	Parser, _ := scyjava.Import("org.scijava.parsington.ExpressionParser")
//	parser, _ := Parser.New()
//
// The JVM starts once per process. Configuration calls made after Start
// have no effect on the running JVM; Start logs a warning and ignores its
// options when called again.
package scyjava
