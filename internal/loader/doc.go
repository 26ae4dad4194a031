// Package loader builds linked class pools and keep seeds from a program
// description written in CUE.
//
// A description lists program classes with their members and the
// constants each method's code references, library classes by
// signature, resource files, and the keep seeds:
//
//	classes: "com/example/Main": {
//		access: ["public"]
//		methods: "main([Ljava/lang/String;)V": {
//			access: ["public", "static"]
//			code: [
//				{method: "com/example/Service.start()V"},
//				{"string": "app.properties"},
//			]
//		}
//	}
//	library: "java/lang/Object": methods: ["<init>()V"]
//	resources: "app.properties": size: 42
//	keep: members: ["com/example/Main.main"]
//
// Descriptions are validated against a closed schema, so misspelled keys
// fail with the position of the offending field. Class and member names
// are NFC-normalized. String constants that name a resource file or a
// class are linked to it. Classes without a super key extend
// java/lang/Object.
package loader
