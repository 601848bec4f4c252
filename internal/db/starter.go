package db

// Starter templates seeded into newly created rooms.
var starterCode = map[string]string{
	"python":     "# Welcome to Pair Programming!\n# Start coding together...\n\ndef main():\n    print(\"Hello, World!\")\n\nif __name__ == \"__main__\":\n    main()\n",
	"javascript": "// Welcome to Pair Programming!\n// Start coding together...\n\nfunction main() {\n    console.log(\"Hello, World!\");\n}\n\nmain();\n",
	"typescript": "// Welcome to Pair Programming!\n// Start coding together...\n\nfunction main(): void {\n    console.log(\"Hello, World!\");\n}\n\nmain();\n",
	"java":       "// Welcome to Pair Programming!\n// Start coding together...\n\npublic class Main {\n    public static void main(String[] args) {\n        System.out.println(\"Hello, World!\");\n    }\n}\n",
	"cpp":        "// Welcome to Pair Programming!\n// Start coding together...\n\n#include <iostream>\n\nint main() {\n    std::cout << \"Hello, World!\" << std::endl;\n    return 0;\n}\n",
	"go":         "// Welcome to Pair Programming!\n// Start coding together...\n\npackage main\n\nimport \"fmt\"\n\nfunc main() {\n    fmt.Println(\"Hello, World!\")\n}\n",
	"rust":       "// Welcome to Pair Programming!\n// Start coding together...\n\nfn main() {\n    println!(\"Hello, World!\");\n}\n",
	"ruby":       "# Welcome to Pair Programming!\n# Start coding together...\n\ndef main\n  puts \"Hello, World!\"\nend\n\nmain\n",
}

// StarterCode returns the template for a language, falling back to python.
func StarterCode(language string) string {
	if code, ok := starterCode[language]; ok {
		return code
	}
	return starterCode["python"]
}
