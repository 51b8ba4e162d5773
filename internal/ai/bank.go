package ai

import "github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"

func mcq(question string, options []string, answer string) database.Question {
	return database.Question{Question: question, Options: options, CorrectAnswer: answer}
}

type topicQuestions struct {
	topic     string
	questions []database.Question
}

// topicBank is matched against lowercased skills in this order.
var topicBank = []topicQuestions{
	{topic: "javascript", questions: []database.Question{
		mcq("What is the output of typeof null?", []string{`"object"`, `"null"`, `"undefined"`, `"number"`}, `"object"`),
		mcq("Which method adds an element to the end of an array?", []string{"push()", "pop()", "unshift()", "shift()"}, "push()"),
		mcq("What is a closure?", []string{"Function bundled with lexical environment", "A variable type", "A loop structure", "An object method"}, "Function bundled with lexical environment"),
		mcq(`What does "use strict" do?`, []string{"Enforces stricter parsing", "Allows global variables", "Disables functions", "Imports a library"}, "Enforces stricter parsing"),
	}},
	{topic: "typescript", questions: []database.Question{
		mcq(`What is the "any" type?`, []string{"Disables type checking", "A string type", "A number type", "An error"}, "Disables type checking"),
		mcq("How do you define an interface?", []string{"interface Name {}", "type Name = {}", "class Name {}", "struct Name {}"}, "interface Name {}"),
		mcq("What are Generics?", []string{"Reusable components with types", "Global variables", "Database keys", "Functions"}, "Reusable components with types"),
	}},
	{topic: "node", questions: []database.Question{
		mcq("What is the Event Loop?", []string{"Handles async callbacks", "A for loop", "A library", "A database"}, "Handles async callbacks"),
		mcq("Which module is used for file system?", []string{"fs", "http", "path", "os"}, "fs"),
		mcq("What is npm?", []string{"Node Package Manager", "Node Project Manager", "New Project Maker", "None"}, "Node Package Manager"),
	}},
	{topic: "react", questions: []database.Question{
		mcq("What is a Hook?", []string{"Function to use state in functional components", "A class method", "A database connection", "A routing tool"}, "Function to use state in functional components"),
		mcq("What is JSX?", []string{"Syntax extension for JavaScript", "A library", "A database", "A variable"}, "Syntax extension for JavaScript"),
		mcq("What is Virtual DOM?", []string{"Lightweight copy of DOM", "Real DOM", "A browser", "A server"}, "Lightweight copy of DOM"),
	}},
	{topic: "python", questions: []database.Question{
		mcq("What is PEP 8?", []string{"Style guide for Python code", "A database", "A library", "A version"}, "Style guide for Python code"),
		mcq("What is a decorator?", []string{"Function that modifies another function", "A class", "A variable", "A loop"}, "Function that modifies another function"),
		mcq("What is a tuple?", []string{"Immutable sequence", "Mutable sequence", "A dictionary", "A set"}, "Immutable sequence"),
	}},
	{topic: "java", questions: []database.Question{
		mcq("What is JVM?", []string{"Java Virtual Machine", "Java Visual Mode", "Java Version Manager", "None"}, "Java Virtual Machine"),
		mcq("What is inheritance?", []string{"Mechanism where one class acquires properties of another", "A loop", "A variable", "A library"}, "Mechanism where one class acquires properties of another"),
	}},
	{topic: "sql", questions: []database.Question{
		mcq("What does SELECT * do?", []string{"Selects all columns", "Selects all rows", "Selects nothing", "Selects random data"}, "Selects all columns"),
		mcq("What is a JOIN?", []string{"Combines rows from two or more tables", "Deletes data", "Updates data", "Creates a table"}, "Combines rows from two or more tables"),
	}},
}

// defaultBank fills any shortfall left after topic matching.
var defaultBank = []database.Question{
	mcq("What does HTTP stand for?", []string{"HyperText Transfer Protocol", "HyperText Transmission Protocol", "HyperTest Transfer Protocol", "None"}, "HyperText Transfer Protocol"),
	mcq("What is Git?", []string{"Version Control System", "A text editor", "A language", "A database"}, "Version Control System"),
	mcq("What does API stand for?", []string{"Application Programming Interface", "Application Protocol Interface", "App Program Interface", "None"}, "Application Programming Interface"),
	mcq("What is JSON?", []string{"JavaScript Object Notation", "Java Source Object Network", "JavaScript Open Network", "None"}, "JavaScript Object Notation"),
	mcq("What does SQL stand for?", []string{"Structured Query Language", "Standard Query Language", "Simple Query Language", "None"}, "Structured Query Language"),
	mcq("Which data structure uses LIFO?", []string{"Stack", "Queue", "Array", "Tree"}, "Stack"),
	mcq("Which data structure uses FIFO?", []string{"Queue", "Stack", "Graph", "Heap"}, "Queue"),
	mcq("What is the time complexity of binary search?", []string{"O(log n)", "O(n)", "O(n^2)", "O(1)"}, "O(log n)"),
	mcq("What is a Primary Key?", []string{"Unique identifier in a table", "A password", "First column", "None"}, "Unique identifier in a table"),
	mcq("What is CI/CD?", []string{"Continuous Integration/Continuous Deployment", "Code Integration/Code Deployment", "Computer Interface/Computer Design", "None"}, "Continuous Integration/Continuous Deployment"),
}

func interviewTemplate(role string) []string {
	return []string{
		"Tell me about your experience with " + role + ".",
		"Describe a challenging project you worked on.",
		"How do you handle tight deadlines?",
		"How do you stay updated with new technologies?",
		"Where do you see yourself in 5 years?",
	}
}
