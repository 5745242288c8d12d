// Package langs содержит список поддерживаемых языков и стартовые
// фрагменты кода, с которых начинается буфер новой комнаты.
package langs

import "strings"

// DefaultLanguage используется, когда язык не указан или неизвестен.
const DefaultLanguage = "python"

// starters содержит стартовый фрагмент для каждого поддерживаемого языка.
var starters = map[string]string{
	"python": `# Welcome to PairCraft - Collaborative Coding Platform
# Start coding together in real-time!

def greet(name):
    return f"Hello, {name}! Welcome to PairCraft."

if __name__ == "__main__":
    print(greet("Developer"))
`,

	"javascript": `// Welcome to PairCraft - Collaborative Coding Platform
// Start coding together in real-time!

function greet(name) {
  return ` + "`Hello, ${name}! Welcome to PairCraft.`" + `;
}

console.log(greet("Developer"));
`,

	"typescript": `// Welcome to PairCraft - Collaborative Coding Platform
// Start coding together in real-time!

function greet(name: string): string {
  return ` + "`Hello, ${name}! Welcome to PairCraft.`" + `;
}

console.log(greet("Developer"));
`,

	"go": `// Welcome to PairCraft - Collaborative Coding Platform
// Start coding together in real-time!

package main

import "fmt"

func greet(name string) string {
    return fmt.Sprintf("Hello, %s! Welcome to PairCraft.", name)
}

func main() {
    fmt.Println(greet("Developer"))
}
`,

	"java": `// Welcome to PairCraft - Collaborative Coding Platform
// Start coding together in real-time!

public class Main {
    public static String greet(String name) {
        return "Hello, " + name + "! Welcome to PairCraft.";
    }

    public static void main(String[] args) {
        System.out.println(greet("Developer"));
    }
}
`,

	"cpp": `// Welcome to PairCraft - Collaborative Coding Platform
// Start coding together in real-time!

#include <iostream>
#include <string>

std::string greet(const std::string& name) {
    return "Hello, " + name + "! Welcome to PairCraft.";
}

int main() {
    std::cout << greet("Developer") << std::endl;
    return 0;
}
`,

	"rust": `// Welcome to PairCraft - Collaborative Coding Platform
// Start coding together in real-time!

fn greet(name: &str) -> String {
    format!("Hello, {}! Welcome to PairCraft.", name)
}

fn main() {
    println!("{}", greet("Developer"));
}
`,

	"ruby": `# Welcome to PairCraft - Collaborative Coding Platform
# Start coding together in real-time!

def greet(name)
  "Hello, #{name}! Welcome to PairCraft."
end

puts greet("Developer")
`,

	"php": `<?php
// Welcome to PairCraft - Collaborative Coding Platform
// Start coding together in real-time!

function greet($name) {
    return "Hello, $name! Welcome to PairCraft.";
}

echo greet("Developer") . PHP_EOL;
`,

	"csharp": `// Welcome to PairCraft - Collaborative Coding Platform
// Start coding together in real-time!

using System;

class Program
{
    static string Greet(string name) => $"Hello, {name}! Welcome to PairCraft.";

    static void Main() => Console.WriteLine(Greet("Developer"));
}
`,
}

// StarterCode возвращает стартовый фрагмент для языка.
// Неизвестный язык получает фрагмент DefaultLanguage.
func StarterCode(language string) string {
	if code, ok := starters[strings.ToLower(language)]; ok {
		return code
	}
	return starters[DefaultLanguage]
}

// Normalize приводит язык к каноническому виду.
// Неизвестный или пустой язык заменяется на DefaultLanguage.
func Normalize(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if _, ok := starters[lang]; ok {
		return lang
	}
	return DefaultLanguage
}

// IsSupported сообщает, поддерживается ли язык.
func IsSupported(language string) bool {
	_, ok := starters[strings.ToLower(language)]
	return ok
}

// Supported возвращает список поддерживаемых языков.
func Supported() []string {
	out := make([]string, 0, len(starters))
	for lang := range starters {
		out = append(out, lang)
	}
	return out
}
